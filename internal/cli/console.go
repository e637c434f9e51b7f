package cli

import (
	"fmt"
	"time"

	"imgseo/internal/batch"
)

// consumeRun drains the progress channel on a short ticker until the worker
// publishes its DoneMsg. Log lines scroll; the counter line is redrawn in
// place when a live line is wanted.
func consumeRun(ch *batch.Channel, live bool) batch.Summary {
	ticker := time.NewTicker(120 * time.Millisecond)
	defer ticker.Stop()

	lineActive := false
	for range ticker.C {
		for _, msg := range ch.Drain() {
			switch m := msg.(type) {
			case batch.LogMsg:
				if lineActive {
					fmt.Print("\r\033[2K")
					lineActive = false
				}
				fmt.Println(m.Line)
			case batch.ProgressMsg:
				if live && m.Total > 0 {
					fmt.Printf("\r\033[2Kprocessing %d/%d", m.Done, m.Total)
					lineActive = true
				}
			case batch.DoneMsg:
				if lineActive {
					fmt.Print("\r\033[2K")
				}
				return m.Summary
			}
		}
	}
	return batch.Summary{}
}
