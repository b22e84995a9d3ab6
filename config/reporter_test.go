package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestReport(t *testing.T) (*Report, string) {
	t.Helper()
	dest := filepath.Join(t.TempDir(), "report.zip")
	conf := ReporterConfig{Destination: dest}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	return r, dest
}

func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()

	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func TestReport_Archive(t *testing.T) {
	r, dest := newTestReport(t)
	if r.Name() != dest {
		t.Errorf("Name() = %q, want %q", r.Name(), dest)
	}

	// work directory of a build with a deck inside
	work := t.TempDir()
	if err := os.MkdirAll(filepath.Join(work, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(work, "sub", "deck.tmp"), []byte("deck"), 0644); err != nil {
		t.Fatal(err)
	}
	plan := filepath.Join(t.TempDir(), "sunday.yaml")
	if err := os.WriteFile(plan, []byte("praise_count: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	r.Store("work", work)
	r.Store("result-10.pptx", plan)
	r.Store("result-9.pptx", filepath.Join(t.TempDir(), "absent.pptx"))
	r.StoreData("config/svcdeck.yaml", []byte("version: 1\n"))
	if err := r.StoreCopy("plan", plan); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}
	// snapshot is taken now
	if err := os.WriteFile(plan, []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files := readArchive(t, dest)
	if files["config/svcdeck.yaml"] != "version: 1\n" {
		t.Errorf("stored data = %q", files["config/svcdeck.yaml"])
	}
	if files["work/sub/deck.tmp"] != "deck" {
		t.Errorf("stored directory content = %q", files["work/sub/deck.tmp"])
	}
	if files["result-10.pptx"] != "changed" {
		t.Errorf("stored file = %q", files["result-10.pptx"])
	}
	if _, ok := files["result-9.pptx"]; ok {
		t.Error("absent file must not be archived")
	}

	var copies []string
	for name := range files {
		if strings.HasPrefix(name, "plan") {
			copies = append(copies, files[name])
		}
	}
	if diff := cmp.Diff([]string{"praise_count: 1\n"}, copies); diff != "" {
		t.Errorf("StoreCopy() snapshot mismatch (-want +got):\n%s", diff)
	}

	// manifest lists entries in natural order
	var order []string
	for line := range strings.Lines(files["MANIFEST"]) {
		fields := strings.Split(line, "\t")
		if len(fields) > 1 && strings.HasPrefix(fields[1], "result-") {
			order = append(order, fields[1])
		}
	}
	if diff := cmp.Diff([]string{"result-9.pptx", "result-10.pptx"}, order); diff != "" {
		t.Errorf("manifest order mismatch (-want +got):\n%s", diff)
	}

	// work directories are removed with the report
	if _, err := os.Stat(work); !os.IsNotExist(err) {
		t.Errorf("work directory still exists: %v", err)
	}
	if _, err := os.Stat(plan); err != nil {
		t.Errorf("stored file must be kept: %v", err)
	}
}

func TestReport_OverwritePanics(t *testing.T) {
	r, _ := newTestReport(t)
	t.Cleanup(func() { r.Close() })

	r.Store("result", "a.pptx")
	r.Store("result", "a.pptx") // same path is fine

	defer func() {
		if recover() == nil {
			t.Error("Store() with different path must panic")
		}
	}()
	r.Store("result", "b.pptx")
}

func TestReport_Nil(t *testing.T) {
	var r *Report
	r.Store("x", "y")
	r.StoreData("x", nil)
	if err := r.StoreCopy("x", "y"); err != nil {
		t.Errorf("StoreCopy() on nil report error = %v", err)
	}
	if r.Name() != "" {
		t.Errorf("Name() on nil report = %q", r.Name())
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
