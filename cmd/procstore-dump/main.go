package main

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/0xRadioAc7iv/procstore/internal"
	"github.com/0xRadioAc7iv/procstore/internal/record"
)

type dumpedRecord struct {
	Offset int64 `json:"offset"`
	record.Record
	N string `json:"N"`
}

func main() {
	device := flag.String("device", internal.DEFAULT_DEVICE, "host device directory")
	file := flag.String("file", internal.DEFAULT_FILE_SUB_PATH, "backing file path below the mount point")
	asJSON := flag.Bool("json", false, "print one JSON object per record")
	flag.Parse()

	f, err := os.Open(filepath.Join(*device, filepath.FromSlash(*file)))
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	enc := json.NewEncoder(out)

	err = record.Scan(bufio.NewReader(f), func(offset int64, rec *record.Record) error {
		if *asJSON {
			return enc.Encode(dumpedRecord{Offset: offset, Record: *rec, N: formatNode(rec.N)})
		}

		_, err := fmt.Fprintf(out, "%08d  %d %d %d %d %d %d %d %d %d  %d %d  %d  %d  %s  %d\n",
			offset,
			rec.A, rec.B, rec.C, rec.D, rec.E, rec.F, rec.G, rec.H, rec.I,
			rec.J, rec.K, rec.L, rec.M, formatNode(rec.N), rec.O)
		return err
	})
	if err != nil {
		out.Flush()
		log.Fatal(err)
	}
}

func formatNode(n [6]byte) string {
	s := make([]byte, 0, 17)
	for i, b := range n {
		if i > 0 {
			s = append(s, ':')
		}
		s = append(s, hex.EncodeToString([]byte{b})...)
	}
	return string(s)
}
