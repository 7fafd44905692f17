package checkpoint

import (
	"bytes"
	"encoding/hex"
	"sort"

	"github.com/minio/blake2b-simd"
	"github.com/oneconcern/stele/pkg/checkpoint/status"
	"github.com/oneconcern/stele/pkg/model"
	"github.com/vmihailenco/msgpack/v5"
)

const digestSize = 32

// digest computes the blake2b-256 hex digest of an encoded value
func digest(b []byte) (string, error) {
	hasher, err := blake2b.New(&blake2b.Config{
		Size: digestSize,
	})
	if err != nil {
		return "", err
	}
	if _, err = hasher.Write(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// encodeObjects packs values in sorted name order and indexes them
func encodeObjects(values map[string]interface{}) ([]string, []byte, model.ObjectIndex, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		objects bytes.Buffer
		value   bytes.Buffer
	)
	index := make(model.ObjectIndex, len(names))
	enc := msgpack.NewEncoder(&value)
	enc.SetSortMapKeys(true)

	for _, name := range names {
		value.Reset()
		if err := enc.Encode(values[name]); err != nil {
			return nil, nil, nil, status.ErrEncode.WrapMessage(name + ": " + err.Error())
		}
		d, err := digest(value.Bytes())
		if err != nil {
			return nil, nil, nil, err
		}
		index[name] = model.ObjectRef{
			Offset: int64(objects.Len()),
			Length: int64(value.Len()),
			Digest: d,
		}
		_, _ = objects.Write(value.Bytes())
	}
	return names, objects.Bytes(), index, nil
}

// decodeObject locates, verifies and decodes a single value
func decodeObject(name string, objects []byte, ref model.ObjectRef) (interface{}, error) {
	end := ref.Offset + ref.Length
	if ref.Offset < 0 || ref.Length < 0 || end > int64(len(objects)) {
		return nil, status.ErrCorruptCheckpoint.WrapMessage("object out of bounds: " + name)
	}
	b := objects[ref.Offset:end]

	d, err := digest(b)
	if err != nil {
		return nil, err
	}
	if d != ref.Digest {
		return nil, status.ErrChecksumMismatch.WrapMessage("object digest mismatch: " + name)
	}

	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.UseLooseInterfaceDecoding(true)
	v, err := dec.DecodeInterface()
	if err != nil {
		return nil, status.ErrCorruptCheckpoint.Wrap(err)
	}
	return v, nil
}
