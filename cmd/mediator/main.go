package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"transtelco-billing/common/log"
	"transtelco-billing/conf"
	"transtelco-billing/dao"
	"transtelco-billing/service/mediator"
)

var (
	showVersion bool
	BuiltID     string
	BuiltHost   string
	BuiltTime   string
	GoVersion   string

	backfillYear  int
	backfillMonth int
)

func init() {
	flag.BoolVar(&showVersion, "v", false, "show application version and exit")
	flag.IntVar(&backfillYear, "year", 0, "backfill one month and exit (with -month)")
	flag.IntVar(&backfillMonth, "month", 0, "backfill one month and exit (with -year)")
}

func getAppVersion() string {
	return fmt.Sprintf(""+
		"Built ID:   %s\n"+
		"Built Host: %s\n"+
		"Built Time: %s\n"+
		"Go Version: %s\n",
		BuiltID, BuiltHost, BuiltTime, GoVersion)
}

func main() {
	flag.Parse()
	if showVersion {
		fmt.Println(getAppVersion())
		os.Exit(0)
	}

	conf.Init()
	log.Init(conf.Conf.Logging)

	src := dao.NewSource(conf.Conf.Source, conf.Conf.SourceRules)
	dst := dao.New(conf.Conf.Billing)
	m := mediator.New(conf.Conf.Mediator, src, dst)

	if backfillYear != 0 || backfillMonth != 0 {
		if err := m.RunOnce(backfillYear, backfillMonth); err != nil {
			log.Error(err)
			os.Exit(1)
		}
		return
	}

	m.Start()

	sigterm := make(chan os.Signal, 1)
	signal.Notify(sigterm, syscall.SIGINT, syscall.SIGTERM)
	<-sigterm

	m.Stop()
}
