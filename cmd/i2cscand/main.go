package main

import (
	"flag"
	"log"

	"github.com/robotalks/i2cscan/pkg/env"
	"github.com/robotalks/i2cscan/pkg/framework"
	"github.com/robotalks/i2cscan/pkg/monitor"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()

	conf := env.NewConfig()
	t := conf.MustOpenTransport()
	defer t.Close()

	mon := &monitor.Monitor{
		Scanner:  conf.NewScanner(t),
		Bus:      t.String(),
		Host:     conf.HostName(),
		Interval: conf.Interval,
	}
	if conf.ReportURL != "" {
		pub, err := conf.NewPublisher()
		if err != nil {
			log.Fatalln(err)
		}
		defer pub.Close()
		mon.Publisher = pub
	}

	if err := framework.NewRunner().HandleSignals().Go(mon).Wait(); err != nil {
		log.Println(err)
	}
}
