/*
	Basic Script that prints one random process data sample, for use as the
	sampler command:

		procstore -samplercommand "go run ./scripts/sample-gen.go"
*/

package main

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const (
	// Signed 16-bit readings (A..I)
	numReadings = 9

	// Sensor range for each reading
	readingMin = -1000
	readingMax = 1000
)

func main() {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	fields := make([]string, 0, 15)

	for i := 0; i < numReadings; i++ {
		fields = append(fields, fmt.Sprint(readingMin+rng.Intn(readingMax-readingMin+1)))
	}

	// J, K: signed 8-bit status values
	fields = append(fields, fmt.Sprint(rng.Intn(256)-128), fmt.Sprint(rng.Intn(256)-128))

	// L: counter, M: timestamp
	fields = append(fields, fmt.Sprint(rng.Uint32()), fmt.Sprint(time.Now().UnixNano()))

	// N: six octets
	octets := make([]string, 6)
	for i := range octets {
		octets[i] = fmt.Sprintf("%02x", rng.Intn(256))
	}
	fields = append(fields, strings.Join(octets, ":"))

	// O: flags
	fields = append(fields, fmt.Sprint(rng.Intn(256)))

	fmt.Println(strings.Join(fields, " "))
}
