package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	flag "github.com/spf13/pflag"

	wttp "github.com/perma-web/wttp"
	"github.com/perma-web/wttp/internal/keyValStore"
)

// sitedump inspects a site's on-disk state: it counts keys per record
// class, lists the stored paths, and can stream a full backup to a file.

func main() {
	dataDir := flag.StringP("data", "d", "./tmp", "site data directory")
	backupFile := flag.StringP("backup", "b", "", "write a full site backup to this file")
	flag.Parse()

	resourcePrefix := string(keyValStore.PrefixResource)
	counts := map[string]int{}
	var paths []string

	db, err := badger.Open(badger.DefaultOptions(*dataDir).WithReadOnly(true).WithLogger(nil))
	if err != nil {
		log.Fatal(err)
	}

	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			prefix := key
			if i := strings.Index(key, ":"); i >= 0 {
				prefix = key[:i+1]
			}
			counts[prefix]++
			if strings.HasPrefix(key, resourcePrefix) {
				paths = append(paths, strings.TrimPrefix(key, resourcePrefix))
			}
		}
		return nil
	})
	db.Close()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("data points: %d\n", counts[string(keyValStore.PrefixDataPoint)])
	fmt.Printf("headers:     %d\n", counts[string(keyValStore.PrefixHeader)])
	fmt.Printf("resources:   %d\n", counts[string(keyValStore.PrefixResource)])
	fmt.Printf("balances:    %d\n", counts[string(keyValStore.PrefixBalance)])

	for _, p := range paths {
		fmt.Printf("  %s\n", p)
	}

	if *backupFile == "" {
		return
	}

	// The read-only handle is closed; reopen through the site for the
	// backup stream.
	site, err := wttp.NewSite(wttp.Config{Paths: []string{*dataDir}})
	if err != nil {
		log.Fatal(err)
	}
	defer site.Close()

	out, err := os.Create(*backupFile)
	if err != nil {
		log.Fatal(err)
	}
	defer out.Close()

	if err := site.Backup(out); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("backup written to %s\n", *backupFile)
}
