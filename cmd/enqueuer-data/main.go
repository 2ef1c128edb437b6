package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"transtelco-billing/common/log"
	"transtelco-billing/conf"
	"transtelco-billing/library/redis"
	"transtelco-billing/netsuite"
	"transtelco-billing/service/queuer"
)

var (
	year      int
	month     int
	customers string
)

func init() {
	now := time.Now()
	flag.IntVar(&year, "year", now.Year(), "billing year")
	flag.IntVar(&month, "month", int(now.Month()), "billing month")
	flag.StringVar(&customers, "customers", "", "comma separated customer ids, empty for all enabled")
}

func main() {
	flag.Parse()
	conf.Init()
	log.Init(conf.Conf.Logging)

	if err := redis.Init(conf.Conf.Redis); err != nil {
		panic(err)
	}
	ns := netsuite.New(conf.Conf.NetSuite)

	n, err := queuer.EnqueueDataMonth(ns, year, month, parseIDs(customers))
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
	fmt.Printf("queued %d data billing jobs for %04d/%02d\n", n, year, month)
}

func parseIDs(s string) []int64 {
	if len(strings.TrimSpace(s)) == 0 {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			panic(fmt.Sprintf("invalid customer id %q", part))
		}
		ids = append(ids, id)
	}
	return ids
}
