package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
)

const defaultAddress = "127.0.0.1:7878"

func main() {
	if len(os.Args) > 1 {
		if err := runFile(os.Args[1]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	runRepl()
}

// runFile sends the entire contents of path as a single request and
// prints the response.
func runFile(path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	response, err := send(buf)
	if err != nil {
		return err
	}
	fmt.Println("Command sent.")
	fmt.Println(response)
	return nil
}

// runRepl reads one line at a time from stdin, sending each as its own
// request over a fresh connection, printing the response before
// prompting again.
func runRepl() {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := scanner.Text() + "\n"
		response, err := send([]byte(line))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		fmt.Println("Command sent.")
		fmt.Println(response)
	}
}

// send opens a fresh connection, writes payload as one length-prefixed
// frame, and reads back exactly one length-prefixed response frame.
func send(payload []byte) (string, error) {
	conn, err := net.Dial("tcp", defaultAddress)
	if err != nil {
		return "", fmt.Errorf("connecting to %s: %w", defaultAddress, err)
	}
	defer conn.Close()

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := conn.Write(lenBuf[:]); err != nil {
		return "", fmt.Errorf("writing request length: %w", err)
	}
	if _, err := conn.Write(payload); err != nil {
		return "", fmt.Errorf("writing request body: %w", err)
	}

	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return "", fmt.Errorf("reading response length: %w", err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	body := make([]byte, n)
	if _, err := io.ReadFull(conn, body); err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	return string(body), nil
}
