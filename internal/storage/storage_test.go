package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/seventv/slide-inverter/internal/svc/s3"
	"github.com/seventv/slide-inverter/internal/testutil"
)

func TestParse(t *testing.T) {
	loc, err := Parse("s3://decks/2024/q1.pptx")
	testutil.IsNil(t, err, "s3 location")
	testutil.Assert(t, Location{Bucket: "decks", Key: "2024/q1.pptx"}, loc, "parsed")
	testutil.Assert(t, "q1.pptx", loc.Name(), "name")
	testutil.Assert(t, "s3://decks/2024/q1.pptx", loc.String(), "string")

	loc, err = Parse("./out/archive.zip")
	testutil.IsNil(t, err, "local path")
	testutil.Assert(t, false, loc.IsS3(), "local")
	testutil.Assert(t, "archive.zip", loc.Name(), "name")

	for _, bad := range []string{"", "s3://", "s3://bucket", "s3://bucket/", "s3:///key"} {
		_, err := Parse(bad)
		testutil.NotNil(t, err, bad+" rejected")
	}
}

func TestLocalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	loc := Location{Path: filepath.Join(dir, "nested", "out.zip")}

	st := New(nil)
	testutil.IsNil(t, st.Write(context.Background(), loc, []byte("zip"), "application/zip"), "write")

	data, err := st.Read(context.Background(), loc)
	testutil.IsNil(t, err, "read")
	testutil.Assert(t, []byte("zip"), data, "data")

	_, err = os.Stat(filepath.Join(dir, "nested"))
	testutil.IsNil(t, err, "parent created")
}

func TestS3RoundTrip(t *testing.T) {
	mock := s3.NewMock(map[string]map[string][]byte{
		"in":  {"a.pptx": []byte("deck")},
		"out": {},
	})
	st := New(mock)

	data, err := st.Read(context.Background(), Location{Bucket: "in", Key: "a.pptx"})
	testutil.IsNil(t, err, "download")
	testutil.Assert(t, []byte("deck"), data, "data")

	testutil.IsNil(t, st.Write(context.Background(), Location{Bucket: "out", Key: "x.zip"}, []byte("zip"), "application/zip"), "upload")
	got, ok := mock.Object("out", "x.zip")
	testutil.True(t, ok, "uploaded")
	testutil.Assert(t, []byte("zip"), got, "uploaded data")
}

func TestS3Missing(t *testing.T) {
	_, err := New(nil).Read(context.Background(), Location{Bucket: "b", Key: "k"})
	testutil.Assert(t, ErrNoS3, err, "no s3 configured")
}

func TestReadAllCollectsErrors(t *testing.T) {
	mock := s3.NewMock(map[string]map[string][]byte{"in": {"a": []byte("1")}})

	out, err := New(mock).ReadAll(context.Background(), []Location{
		{Bucket: "in", Key: "a"},
		{Bucket: "in", Key: "missing"},
		{Bucket: "nope", Key: "b"},
	})
	testutil.Assert(t, 1, len(out), "one read")
	testutil.NotNil(t, err, "failures reported")
	testutil.True(t, strings.Contains(err.Error(), "s3://in/missing") && strings.Contains(err.Error(), "s3://nope/b"), "both failures kept")
}
