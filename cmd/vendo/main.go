package main

import (
	"flag"
	"fmt"
	"os"

	prompt "github.com/c-bata/go-prompt"
	"github.com/gagarin78/vendo/helpers/cli"
	"github.com/gagarin78/vendo/internal/state"
	state_new "github.com/gagarin78/vendo/internal/state/new"
	"github.com/gagarin78/vendo/internal/ui"
	"github.com/gagarin78/vendo/log2"
	"github.com/gagarin78/vendo/tele"
	"github.com/juju/errors"
	"github.com/mattn/go-isatty"
)

var BuildVersion string = "unknown" // set by ldflags -X

func main() {
	flagConfig := flag.String("config", "vendo.hcl", "")
	flagVersion := flag.Bool("version", false, "print build version and exit")
	flag.Parse()
	if *flagVersion {
		fmt.Printf("vendo %s\n", BuildVersion)
		return
	}

	log := log2.NewStderr(log2.LInfo)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.SetFlags(log2.LInteractiveFlags)
	} else {
		log.SetFlags(log2.LServiceFlags)
	}
	log.Debugf("hello")

	ctx, g := state_new.NewContext(log, tele.NewMqtt())
	g.BuildVersion = BuildVersion

	fs := state.NewOsFullReader()
	cfg := state.MustReadConfig(log, fs, *flagConfig)
	if !cfg.Tele.Enable {
		g.Tele = tele.NewStub()
	}
	g.MustInit(ctx, cfg)
	log.Debugf("config=%+v", cfg)

	front := &ui.UI{}
	if err := front.Init(ctx, nil); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	go front.Loop(ctx)

	cli.MainLoop("vendo", g.Alive, g.Stop, front.Submit, completer)
	g.Stop()
	g.Alive.Wait()
}

func completer(d prompt.Document) []prompt.Suggest {
	suggests := []prompt.Suggest{
		{Text: "coin", Description: "insert a coin, value in config units"},
		{Text: "menu", Description: "list products"},
		{Text: "credit", Description: "show deposited balance"},
		{Text: "buy", Description: "buy product by code"},
		{Text: "refund", Description: "return deposited balance"},
		{Text: "service", Description: "operator mode"},
		{Text: "stop", Description: "stop the machine"},
	}
	return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
}
