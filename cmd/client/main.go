// Command client is a small JSON-RPC client for poking the bridge by hand:
// it reads one request per line from stdin and POSTs each to the server's
// /rpc endpoint.
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	serverURL := flag.String("url", "http://localhost:8080/rpc", "Bridge /rpc endpoint")
	timeout := flag.Duration("timeout", 30*time.Second, "Per-request timeout")
	flag.Parse()

	client := &http.Client{Timeout: *timeout}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		resp, err := client.Post(*serverURL, "application/json", bytes.NewBufferString(line))
		if err != nil {
			fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read response: %v\n", err)
			continue
		}

		fmt.Println(strings.TrimSpace(string(body)))
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "stdin error: %v\n", err)
		os.Exit(1)
	}
}
