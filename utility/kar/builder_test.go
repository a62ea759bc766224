// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestAddAndWrite(t *testing.T) {
	builder, err := NewBuilder(Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer builder.Close()

	if err := builder.Add("test", strings.NewReader("idunvovkjnreovmegihjbrqlkmfrjnb")); err != nil {
		t.Fatal(err)
	}
	if err := builder.Add("test2", strings.NewReader("idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb")); err != nil {
		t.Fatal(err)
	}
	if err := builder.Add("test", strings.NewReader("again")); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected duplicate error, got %v", err)
	}

	if builder.Len() != 2 {
		t.Error("incorrect number of files present")
	}

	var buf bytes.Buffer
	num, err := builder.WriteTo(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if num != int64(buf.Len()) {
		t.Errorf("reported %d bytes written, buffer holds %d", num, buf.Len())
	}
	if !bytes.HasPrefix(buf.Bytes(), magic[:]) {
		t.Error("archive does not start with the magic")
	}
}

func TestHeaderSizeEncoding(t *testing.T) {
	for _, num := range []int64{0, 1, 300, 1 << 40} {
		got, err := binaryToint64(int64ToBinary(num))
		if err != nil {
			t.Fatal(err)
		}
		if got != num {
			t.Errorf("expected %d, got %d", num, got)
		}
	}
	if _, err := binaryToint64([]byte{1, 2}); err != ErrFileFormat {
		t.Errorf("expected file format error, got %v", err)
	}
}
