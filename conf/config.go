package conf

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"

	"transtelco-billing/cacti"
	"transtelco-billing/common/database/orm"
	"transtelco-billing/common/log"
	"transtelco-billing/dao"
	"transtelco-billing/httpapi"
	"transtelco-billing/library/kafka"
	"transtelco-billing/library/redis"
	"transtelco-billing/netsuite"
	"transtelco-billing/rating"
	"transtelco-billing/service/biller"
	"transtelco-billing/service/databilling"
	"transtelco-billing/service/mediator"
	"transtelco-billing/service/queuer"
)

var (
	Conf = &Config{}
)

type Config struct {
	Logging     *log.Config
	Billing     *orm.Config // billing store
	Source      *orm.Config // switch CDR database
	SourceRules *dao.SourceFilter
	Redis       *redis.Config
	Kafka       *kafka.Config
	NetSuite    *netsuite.Config
	Cacti       *cacti.Config
	Rating      *rating.Config
	Mediator    *mediator.Config
	Biller      *biller.Config
	DataBilling *databilling.Config
	Worker      *queuer.WorkerConfig
	HTTP        *httpapi.Config
}

func (c *Config) String() string {
	b := &bytes.Buffer{}
	err := toml.NewEncoder(b).Encode(c)
	if err != nil {
		return ""
	}

	return b.String()
}

func Init() {
	if len(configFilePath) == 0 {
		panic("parse config file error")
	}

	_, err := toml.DecodeFile(configFilePath, Conf)
	if err != nil {
		panic(fmt.Sprintf("toml.DecodeFile: %v\n", err))
	}
}
