// Command portalgate-hash prints an Argon2id hash for a credentials file.
//
//	echo -n 'secret' | go run ./cmd/portalgate-hash
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/MrEthical07/portalgate/credentials"
)

func main() {
	var (
		memory      = flag.Uint("memory", uint(credentials.DefaultParams.Memory), "argon2 memory in KB")
		iterations  = flag.Uint("time", uint(credentials.DefaultParams.Time), "argon2 iterations")
		parallelism = flag.Uint("parallelism", uint(credentials.DefaultParams.Parallelism), "argon2 parallelism")
	)
	flag.Parse()

	params := credentials.DefaultParams
	params.Memory = uint32(*memory)
	params.Time = uint32(*iterations)
	params.Parallelism = uint8(*parallelism)

	hasher, err := credentials.NewHasher(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(2)
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(os.Stderr, "password expected on stdin")
		os.Exit(2)
	}

	hash, err := hasher.Hash(strings.TrimRight(line, "\r\n"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
