package report

import (
	"fmt"
	"time"

	"github.com/baderkha/cdm-runner/pkg/migrate/table"
)

const (
	fileStampLayout = "20060102_150405"
	lineStampLayout = "[2006-01-02 15:04:05]"
)

// SummaryName : file name of the run summary for a run started at runStart
func SummaryName(runStart time.Time) string {
	return fmt.Sprintf("summary_%s.log", runStart.Format(fileStampLayout))
}

// TaskLogName : file name of one task's engine output. seq keeps two tasks of the same
// table started within the same second apart
func TaskLogName(target table.Identifier, startedAt time.Time, seq int) string {
	return fmt.Sprintf("cdm_%s_%s_%04d.log", target.String(), startedAt.Format(fileStampLayout), seq)
}
