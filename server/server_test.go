package server

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/qkvdb/qkvdb/engine"
	"github.com/qkvdb/qkvdb/storage"
)

func startTestServer(t *testing.T) string {
	t.Helper()
	store, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	eng := engine.New(store)
	srv := New(eng, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	ready := make(chan error, 1)
	go func() {
		ready <- srv.Serve(ctx, addr)
	}()

	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, time.Second, 10*time.Millisecond)

	return addr
}

func sendRequest(t *testing.T, addr, payload string) string {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	_, err = conn.Write(lenBuf[:])
	require.NoError(t, err)
	_, err = conn.Write([]byte(payload))
	require.NoError(t, err)

	_, err = io.ReadFull(conn, lenBuf[:])
	require.NoError(t, err)
	n := binary.LittleEndian.Uint32(lenBuf[:])
	body := make([]byte, n)
	_, err = io.ReadFull(conn, body)
	require.NoError(t, err)
	return string(body)
}

func TestServerCreateDatabaseReturnsDone(t *testing.T) {
	addr := startTestServer(t)
	resp := sendRequest(t, addr, "CREATE DATABASE d WITH qkv_vec_size = 4;")
	require.Equal(t, "DONE.", resp)
}

func TestServerUnknownBucketScanReturnsError(t *testing.T) {
	addr := startTestServer(t)
	sendRequest(t, addr, "CREATE DATABASE d WITH qkv_vec_size = 4;")
	resp := sendRequest(t, addr, "SCAN missing INSIDE d QUERIES ([1,0,0,0]);")
	require.Contains(t, resp, "does not exist")
}

func TestServerScanReturnsMatrix(t *testing.T) {
	addr := startTestServer(t)
	sendRequest(t, addr, "CREATE DATABASE d WITH qkv_vec_size = 4;")
	sendRequest(t, addr, "CREATE BUCKET b INSIDE d;")
	sendRequest(t, addr, "INSERT INTO b INSIDE d KEYS ([1,0,0,0]) VALUES ([1,1,1,1]);")
	resp := sendRequest(t, addr, "SCAN b INSIDE d QUERIES ([1,0,0,0]);")
	require.Contains(t, resp, "DONE.")
	require.Contains(t, resp, "[")
}

func TestServerMultiCommandRequestStopsResponseAtFirstError(t *testing.T) {
	addr := startTestServer(t)
	resp := sendRequest(t, addr, "CREATE DATABASE d WITH qkv_vec_size = 4; CREATE DATABASE d WITH qkv_vec_size = 4;")
	require.Contains(t, resp, "already exists")
}
