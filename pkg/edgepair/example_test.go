package edgepair_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hejijunhao/edgepair/pkg/edgepair"
)

func Example() {
	f, err := os.CreateTemp("", "edgepair-*.ndjson")
	if err != nil {
		log.Fatal(err)
	}
	defer os.Remove(f.Name())
	fmt.Fprintln(f, `{"deviceName":"raspi1","message":"Deployment created","level":"INFO","timestamp":"2024-06-15T10:00:00.000Z"}`)
	fmt.Fprintln(f, `{"deviceName":"raspi2","message":"camera execution result: 1","level":"INFO","timestamp":"2024-06-15T10:00:01.250Z"}`)
	f.Close()

	d, err := edgepair.New(edgepair.WithReplay(f.Name()), edgepair.WithPollDelay(time.Millisecond))
	if err != nil {
		log.Fatal(err)
	}
	defer d.Close()

	if err := d.Run(context.Background()); err != nil {
		log.Fatal(err)
	}

	fmt.Println(d.Render(0))
	fmt.Println(d.Render(1))
	// Output:
	// [10:00:00.000] 🚀 Deployment created
	// [10:00:01.250] 🎯 camera execution result: 1
}
