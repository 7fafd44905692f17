package cmd

import (
	"strconv"
	"time"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/stele/pkg/audit"
	"github.com/oneconcern/stele/pkg/model"
	"github.com/spf13/cobra"
)

const (
	followInterval = 500 * time.Millisecond
	auditPageSize  = 100
)

type auditLine struct {
	Token string
	TS    string
	Event model.AuditEvent
	PID   string
	Meta  string
}

func newAuditLine(r model.AuditRecord) auditLine {
	line := auditLine{Token: r.Token, TS: r.TS, Event: r.Event, PID: "-", Meta: "{}"}
	if r.PID != nil {
		line.PID = strconv.Itoa(*r.PID)
	}
	if len(r.Meta) > 0 {
		if b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(r.Meta); err == nil {
			line.Meta = string(b)
		}
	}
	return line
}

func eventString(event model.AuditEvent) string {
	switch event {
	case model.EventError, model.EventKill:
		return color.RedString(string(event))
	case model.EventPause, model.EventPauseSkipped, model.EventResumeSkipped:
		return color.YellowString(string(event))
	default:
		return color.CyanString(string(event))
	}
}

var auditCmd = &cobra.Command{
	Use:   "audit EXEC_ID",
	Short: "Show the audit log of an execution",
	Long:  `Show the lifecycle events recorded for an execution, in the order they were appended.`,
	Example: `% stele audit execution-20240102T030405-1a2b3c4d
2024-01-02T03:04:05.123Z START pid=4242 {"command":["stele-counter"]}`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "audit", err)
		}(time.Now())

		execID := args[0]
		e, err := newEngine()
		if err != nil {
			wrapFatalln("create engine", err)
			return
		}
		if _, err = e.Status(execID); err != nil {
			wrapFatalln("get execution", err)
			return
		}
		t, err := outputTemplate("audit line", `{{.TS}} {{.Event}} pid={{.PID}} {{.Meta}}`)
		if err != nil {
			wrapFatalln("invalid template", err)
			return
		}
		colored := steleFlags.core.Template == ""

		log := audit.New(model.GetPathToExecFile(e.BaseDir(), execID, model.ExecAuditFile), audit.Logger(logger))
		var token string
		for {
			records, next, erl := log.ListEntries(token, auditPageSize)
			if erl != nil {
				err = erl
				wrapFatalln("read audit log", err)
				return
			}
			for _, r := range records {
				line := newAuditLine(r)
				if colored {
					line.Event = model.AuditEvent(eventString(r.Event))
				}
				if err = applyTemplate(t, line); err != nil {
					wrapFatalln("executing template", err)
					return
				}
				token = r.Token
			}
			if next != "" {
				continue
			}
			if !steleFlags.exec.Follow {
				return
			}
			st, ers := e.Status(execID)
			if ers != nil || st.State == model.StateStopped {
				return
			}
			time.Sleep(followInterval)
		}
	},
}

func init() {
	addTemplateFlag(auditCmd)
	addFollowFlag(auditCmd)
	rootCmd.AddCommand(auditCmd)
}
