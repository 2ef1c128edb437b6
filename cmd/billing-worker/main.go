package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"transtelco-billing/cacti"
	"transtelco-billing/common/log"
	"transtelco-billing/conf"
	"transtelco-billing/dao"
	"transtelco-billing/httpapi"
	"transtelco-billing/library/kafka"
	"transtelco-billing/library/redis"
	"transtelco-billing/netsuite"
	"transtelco-billing/rating"
	"transtelco-billing/service/biller"
	"transtelco-billing/service/databilling"
	"transtelco-billing/service/progress"
	"transtelco-billing/service/queuer"
)

var (
	showVersion bool
	BuiltID     string
	BuiltHost   string
	BuiltTime   string
	GoVersion   string
)

func init() {
	flag.BoolVar(&showVersion, "v", false, "show application version and exit")
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
	runtime.GOMAXPROCS(runtime.NumCPU())

	flag.Parse()
	if showVersion {
		fmt.Println(getAppVersion())
		os.Exit(0)
	}

	conf.Init()
	log.Init(conf.Conf.Logging)

	if err := rating.Init(conf.Conf.Rating); err != nil {
		panic(err)
	}
	if err := redis.Init(conf.Conf.Redis); err != nil {
		panic(err)
	}

	d := dao.New(conf.Conf.Billing)
	ns := netsuite.New(conf.Conf.NetSuite)

	var rated, summary *kafka.Producer
	if c := conf.Conf.Kafka; c != nil {
		rated = newProducer(c.RatedCDRProducer)
		summary = newProducer(c.SummaryProducer)
	}

	voice := biller.New(conf.Conf.Biller, d, ns, rating.Tables(), rated, summary)
	data := databilling.New(conf.Conf.DataBilling, cacti.New(conf.Conf.Cacti))
	reg := progress.NewRegistry()

	if conf.Conf.HTTP != nil && len(conf.Conf.HTTP.Addr) != 0 {
		go httpapi.New(conf.Conf.HTTP, reg).Run()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		queuer.NewWorker(conf.Conf.Worker, voice, data, reg).Run(ctx)
		close(done)
	}()

	sigterm := make(chan os.Signal, 1)
	signal.Notify(sigterm, syscall.SIGINT, syscall.SIGTERM)
	<-sigterm

	cancel()
	<-done
	if rated != nil {
		rated.Close()
	}
	if summary != nil {
		summary.Close()
	}
}

func newProducer(c *kafka.ProducerConfig) *kafka.Producer {
	if c == nil || !c.Enable {
		return nil
	}
	p, err := kafka.NewProducer(c)
	if err != nil {
		panic(err)
	}
	p.Run()
	return p
}
