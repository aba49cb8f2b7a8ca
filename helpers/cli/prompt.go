package cli

import (
	"bytes"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"syscall"

	prompt "github.com/c-bata/go-prompt"
	"github.com/mattn/go-isatty"
	"github.com/temoto/alive/v2"
)

// MainLoop feeds stdin lines to exec. Interactive terminal gets go-prompt
// with completion, piped stdin is replayed line by line. Returns when the
// machine stops or stdin is exhausted.
func MainLoop(tag string, a *alive.Alive, onStop func(), exec func(line string), complete func(d prompt.Document) []prompt.Suggest) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		<-signalCh
		a.Stop()
		if onStop != nil {
			onStop()
		}
		os.Exit(1)
	}()

	wrapped := func(line string) {
		exec(line)
		if !a.IsRunning() {
			// go-prompt has no clean exit path in this version
			if onStop != nil {
				onStop()
			}
			os.Exit(0)
		}
	}

	if isatty.IsTerminal(os.Stdin.Fd()) {
		prompt.New(wrapped, complete, prompt.OptionPrefix(tag+"> ")).Run()
		return
	}
	stdinAll, err := ioutil.ReadAll(os.Stdin)
	if err != nil {
		log.Fatal(err)
	}
	linesb := bytes.Split(stdinAll, []byte{'\n'})
	for _, lineb := range linesb {
		if !a.IsRunning() {
			return
		}
		line := string(bytes.TrimSpace(lineb))
		if line != "" {
			exec(line)
		}
	}
}
