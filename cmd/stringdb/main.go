// Copyright 2025 The StringDB Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Command stringdb is a small maintenance and inspection tool over the
// StringDB storage engine, the direct analogue of pebble's own cmd/pebble
// utility: it calls only the public Database/FileDatabase API, never the
// fluent/query sugar the library itself is scoped to exclude.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stringdb/stringdb/keycodec"
	"github.com/stringdb/stringdb/storage/filedb"
	"github.com/stringdb/stringdb/typehandler"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stringdb",
		Short: "Inspect and maintain StringDB files",
	}
	root.AddCommand(newDumpCmd(), newCleanCmd(), newVerifyCmd(), newLoadCmd())
	return root
}

func openStringDB(path string) (*filedb.FileDatabase[string, string], error) {
	opts := []filedb.Option[string, string]{
		filedb.WithKeyCodec[string, string](keycodec.StringCodec{}),
		filedb.WithValueRegistry[string, string](typehandler.NewStringRegistry()),
		filedb.WithValueHandler[string, string](typehandler.StringHandler{}),
		filedb.WithMetricsPath[string, string](path),
	}
	return filedb.OpenFile[string, string](path, opts...)
}

func newDumpCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print key -> value pairs in enumeration order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if raw {
				return dumpRaw(args[0])
			}
			db, err := openStringDB(args[0])
			if err != nil {
				return err
			}
			defer db.Dispose()
			pairs, err := db.Enumerate()
			if err != nil {
				return err
			}
			for _, p := range pairs {
				v, err := p.Value.Load()
				if err != nil {
					return err
				}
				fmt.Printf("%s -> %s\n", p.Key, v)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "decode values with the byte-array handler instead of the UTF-8 string handler")
	return cmd
}

func dumpRaw(path string) error {
	opts := []filedb.Option[string, []byte]{
		filedb.WithKeyCodec[string, []byte](keycodec.StringCodec{}),
		filedb.WithValueRegistry[string, []byte](typehandler.NewBytesRegistry()),
		filedb.WithValueHandler[string, []byte](typehandler.ByteArrayHandler{}),
		filedb.WithMetricsPath[string, []byte](path),
	}
	db, err := filedb.OpenFile[string, []byte](path, opts...)
	if err != nil {
		return err
	}
	defer db.Dispose()
	pairs, err := db.Enumerate()
	if err != nil {
		return err
	}
	for _, p := range pairs {
		v, err := p.Value.Load()
		if err != nil {
			return err
		}
		fmt.Printf("%s -> %x\n", p.Key, v)
	}
	return nil
}

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean <src> <dst>",
		Short: "Compact src into a fresh single-chunk file dst",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := openStringDB(args[0])
			if err != nil {
				return err
			}
			defer src.Dispose()
			dst, err := openStringDB(args[1])
			if err != nil {
				return err
			}
			defer dst.Dispose()
			return src.CleanTo(dst)
		},
	}
}

func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <file> <key> <source>",
		Short: "Insert source's raw bytes under key using the stream handler",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, key, source := args[0], args[1], args[2]
			src, err := os.Open(source)
			if err != nil {
				return err
			}
			defer src.Close()
			payload, err := typehandler.ReadAllToBytes(src)
			if err != nil {
				return err
			}

			opts := []filedb.Option[string, []byte]{
				filedb.WithKeyCodec[string, []byte](keycodec.StringCodec{}),
				filedb.WithValueRegistry[string, []byte](typehandler.NewBytesRegistry()),
				filedb.WithValueHandler[string, []byte](typehandler.StreamHandler{}),
				filedb.WithMetricsPath[string, []byte](path),
			}
			db, err := filedb.OpenFile[string, []byte](path, opts...)
			if err != nil {
				return err
			}
			defer db.Dispose()
			return db.Insert(key, payload)
		},
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Walk every chunk verifying checksums",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStringDB(args[0])
			if err != nil {
				return err
			}
			defer db.Dispose()
			if _, err := db.Enumerate(); err != nil {
				fmt.Fprintf(os.Stderr, "corruption: %v\n", err)
				os.Exit(1)
			}
			m := db.Metrics()
			fmt.Printf("ok: %d chunks, %d checksum errors\n", m.ChunksRead, m.ChecksumErrors)
			return nil
		},
	}
}
