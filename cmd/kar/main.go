// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkbase/utility/kar"
)

var currentUserName = "unknown"

func init() {
	if u, err := user.Current(); err == nil && u.Name != "" {
		currentUserName = u.Name
	}
}

var (
	author   = flag.String("author", currentUserName, "Set the author of the package when compressing")
	version  = flag.Int64("version", 1, "Archive version number to create it with")
	extract  = flag.String("e", "", "Extract the given archive")
	compress = flag.String("c", "", "Compress the given file/folder")
	list     = flag.String("l", "", "List the contents of the given archive")
	dstFile  = flag.String("f", "out.kar", "Destination file when compressing")
	dstDir   = flag.String("d", ".", "Destination directory when extracting")
	silent   = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(log.WarnLevel)
	}

	var ops int
	for _, op := range []string{*extract, *compress, *list} {
		if op != "" {
			ops++
		}
	}
	if ops > 1 {
		log.Fatal("only one operation at a time")
	}

	var err error
	switch {
	case *compress != "":
		err = compressFiles(*compress, *dstFile, kar.Header{
			Author:      *author,
			DateCreated: time.Now().Unix(),
			Version:     *version,
		})
	case *extract != "":
		err = extractFiles(*extract, *dstDir)
	case *list != "":
		err = listFiles(os.Stdout, *list)
	default:
		flag.PrintDefaults()
	}
	if err != nil {
		log.Fatal(err)
	}
}

func compressFiles(src, dst string, header kar.Header) error {
	if _, err := os.Stat(dst); err == nil {
		return errors.Errorf("destination file %s exists, will not overwrite", dst)
	}

	builder, err := kar.NewBuilder(header)
	if err != nil {
		return err
	}
	defer builder.Close()

	err = filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		name, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if name == "." {
			name = filepath.Base(path)
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := builder.Add(filepath.ToSlash(name), f); err != nil {
			return errors.Wrapf(err, "adding %s", path)
		}
		log.WithField("file", name).Debug("added")
		return nil
	})
	if err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	n, err := builder.WriteTo(out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return errors.Wrapf(err, "writing %s", dst)
	}
	log.WithFields(log.Fields{"files": builder.Len(), "bytes": n}).Info(dst)
	return nil
}

func extractFiles(src, dst string) error {
	ar, err := kar.OpenFile(src)
	if err != nil {
		return err
	}
	defer ar.Close()

	for _, name := range ar.Files() {
		target := filepath.Join(dst, filepath.FromSlash(name))
		if rel, err := filepath.Rel(dst, target); err != nil || strings.HasPrefix(rel, "..") {
			return errors.Errorf("%s escapes the destination directory", name)
		}
		if err := extractFile(ar, name, target); err != nil {
			return errors.Wrapf(err, "extracting %s", name)
		}
		log.WithField("file", name).Debug("extracted")
	}
	return nil
}

func extractFile(ar *kar.Archive, name, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	r, err := ar.Open(name)
	if err != nil {
		return err
	}
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func listFiles(w io.Writer, src string) error {
	ar, err := kar.OpenFile(src)
	if err != nil {
		return err
	}
	defer ar.Close()

	h := ar.Header()
	fmt.Fprintf(w, "author: %s, version: %d, created: %s\n", h.Author, h.Version, time.Unix(h.DateCreated, 0).UTC().Format(time.RFC3339))
	for _, name := range ar.Files() {
		entry, err := ar.Stat(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%10d %10d %s\n", entry.Size, entry.CompressedSize, name)
	}
	return nil
}
