package model

import "time"

// WorkItem is a candidate input file found in the input folder.
type WorkItem struct {
	FullPath string
	ModTime  time.Time
	Name     string
}

// FileDate is the ledger representation of the file's modification day.
func (w WorkItem) FileDate() string {
	return w.ModTime.Local().Format(DateLayout)
}
