package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"

	structs "github.com/ERRORIK404/Expression_Calculator/pkg/structs"
)

var (
	okColor      = color.New(color.FgGreen, color.Bold)
	failColor    = color.New(color.FgRed, color.Bold)
	pendingColor = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
)

func printRecord(w io.Writer, rec structs.CalculationRecord) {
	dimColor.Fprintf(w, "#%-4d ", rec.ID)
	fmt.Fprintf(w, "%s ", rec.Expression)

	switch rec.Status {
	case structs.StatusSucceeded: // rpc.RecordFromStruct rejects one without a result
		okColor.Fprintf(w, "= %s", strconv.FormatFloat(*rec.Result, 'g', -1, 64))
	case structs.StatusFailed:
		failColor.Fprintf(w, "failed: %s", rec.Error)
		if rec.ErrorMessage != "" {
			fmt.Fprintf(w, " (%s)", rec.ErrorMessage)
		}
	default:
		pendingColor.Fprint(w, "pending")
	}
	fmt.Fprintln(w)
}

func printRecords(w io.Writer, records []structs.CalculationRecord) {
	if len(records) == 0 {
		dimColor.Fprintln(w, "no expressions yet")
		return
	}
	for _, rec := range records {
		printRecord(w, rec)
	}
}
