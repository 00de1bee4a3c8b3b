package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/miekg/dns"
	"github.com/resolvcore/dnscache"
)

var flagConfig = flag.String("config", "", "path to a TOML config file, empty uses built-in defaults")
var flagInsert = flag.String("insert", "", "name=ip to insert as a cached A message before querying, e.g. example.org.=192.0.2.1")
var flagTTL = flag.Int64("ttl", 300, "TTL in seconds for -insert")
var flagType = flag.String("type", "A", "record type to query for")

func main() {
	flag.Parse()

	cfg := dnscache.DefaultConfig()
	if *flagConfig != "" {
		var err error
		cfg, err = dnscache.LoadConfig(*flagConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
	}
	env := dnscache.NewEnv(cfg)

	if *flagInsert != "" {
		if err := insertA(env, *flagInsert, *flagTTL); err != nil {
			fmt.Fprintf(os.Stderr, "insert: %v\n", err)
			os.Exit(1)
		}
	}

	qtype, ok := dns.StringToType[strings.ToUpper(*flagType)]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown record type %q\n", *flagType)
		os.Exit(1)
	}

	for _, qname := range flag.Args() {
		msg, ok := env.Lookup(qname, qtype, dns.ClassINET, nil)
		if !ok {
			fmt.Printf("%s %s: MISS\n", qname, *flagType)
			continue
		}
		fmt.Printf("%s %s: HIT rcode=%d answer=%d authority=%d additional=%d\n",
			qname, *flagType, dnscache.Rcode(msg.Flags), len(msg.Answer), len(msg.Authority), len(msg.Additional))
		for _, rr := range msg.Answer {
			fmt.Printf("  %s %d %d ttl=%d\n", rr.Key.Name, rr.Key.Type, rr.Key.Class, rr.Data.TTL)
		}
	}

	fmt.Printf(";;; rrsets cached: %d, messages cached: %d\n", env.RRsets.Len(), env.Messages.Len())
}

// insertA stores a one-answer message for name IN A, the way a
// resolver would after a successful upstream exchange, so the demo's
// subsequent Lookup actually hits.
func insertA(env *dnscache.Env, spec string, ttl int64) error {
	parts := strings.SplitN(spec, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("expected name=ip, got %q", spec)
	}
	name, ipStr := parts[0], parts[1]

	ip := net.ParseIP(ipStr).To4()
	if ip == nil {
		return fmt.Errorf("parse ip %q: not a valid IPv4 address", ipStr)
	}

	now := env.Now()
	qkey := dnscache.NewQueryKey(name, dns.TypeA, dns.ClassINET)
	aKey := dnscache.NewRRsetKey(name, dns.TypeA, dns.ClassINET, 0)
	aData := dnscache.NewRRsetData([][]byte{ip}, []int64{now + ttl}, 1, 0, dnscache.TrustAnswerAA, dnscache.SecurityUnchecked)

	pending := []dnscache.PendingRRset{{Ref: dnscache.RRsetRef{Key: aKey}, Data: aData}}
	reply := &dnscache.ReplyInfo{
		Flags:   dnscache.FlagQR | dnscache.FlagAA,
		QDCount: 1,
		ANCount: 1,
		TTL:     now + ttl,
	}
	env.StoreMsg(qkey, qkey.Hash(), pending, reply)
	return nil
}
