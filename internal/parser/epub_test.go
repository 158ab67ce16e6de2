package parser

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func buildEPUB(t *testing.T, files map[string]string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(body)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

const testContainerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testOPF = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <manifest>
    <item id="ch2" href="ch2.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="cover" href="cover.png" media-type="image/png"/>
  </manifest>
  <spine>
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
  </spine>
</package>`

func TestEPUBParser_SpineOrder(t *testing.T) {
	r := buildEPUB(t, map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf":      testOPF,
		"OEBPS/ch1.xhtml":        `<html><body><h1>One</h1><p>First chapter text.</p></body></html>`,
		"OEBPS/ch2.xhtml":        `<html><body><h1>Two</h1><p>Second chapter text.</p></body></html>`,
	})

	p := &EPUBParser{}
	text, err := p.Parse(r, "book.epub")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	one := strings.Index(text, "First chapter text.")
	two := strings.Index(text, "Second chapter text.")
	if one < 0 || two < 0 {
		t.Fatalf("chapter text missing: %q", text)
	}
	if one > two {
		t.Errorf("chapters out of spine order: %q", text)
	}
	if !strings.Contains(text, "One") || !strings.Contains(text, "Two") {
		t.Errorf("chapter headings missing: %q", text)
	}
}

func TestEPUBParser_FallbackWithoutContainer(t *testing.T) {
	r := buildEPUB(t, map[string]string{
		"a.xhtml": `<html><body><p>Alpha.</p></body></html>`,
		"b.xhtml": `<html><body><p>Beta.</p></body></html>`,
	})

	p := &EPUBParser{}
	text, err := p.Parse(r, "loose.epub")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "Alpha.") || !strings.Contains(text, "Beta.") {
		t.Errorf("fallback extraction incomplete: %q", text)
	}
}

func TestEPUBParser_NotAZip(t *testing.T) {
	p := &EPUBParser{}
	if _, err := p.Parse(strings.NewReader("this is not an epub"), "bad.epub"); err == nil {
		t.Fatal("expected error for non-zip input")
	}
}

func TestEPUBParser_NoChapters(t *testing.T) {
	r := buildEPUB(t, map[string]string{"mimetype": "application/epub+zip"})
	p := &EPUBParser{}
	if _, err := p.Parse(r, "hollow.epub"); err == nil {
		t.Fatal("expected error for epub with no chapters")
	}
}
