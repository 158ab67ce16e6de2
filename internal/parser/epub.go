package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

// EPUBParser handles .epub files. An EPUB is a zip archive whose
// META-INF/container.xml points at an OPF package document; the OPF
// spine gives the reading order of the XHTML chapter files.
type EPUBParser struct{}

type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type epubPackage struct {
	Manifest struct {
		Items []struct {
			ID        string `xml:"id,attr"`
			Href      string `xml:"href,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		Itemrefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

func (p *EPUBParser) Parse(r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read epub: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open epub archive: %w", err)
	}

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	chapterPaths, err := spineOrder(entries)
	if err != nil {
		// Malformed packaging is common in the wild; fall back to
		// every XHTML entry in archive order.
		chapterPaths = htmlEntries(zr)
	}
	if len(chapterPaths) == 0 {
		return "", fmt.Errorf("epub contains no readable chapters")
	}

	var chapters []string
	for _, name := range chapterPaths {
		f, ok := entries[name]
		if !ok {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open chapter %s: %w", name, err)
		}
		blocks, err := htmlBlocks(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("parse chapter %s: %w", name, err)
		}
		if len(blocks) > 0 {
			chapters = append(chapters, strings.Join(blocks, "\n\n"))
		}
	}

	return strings.Join(chapters, "\n\n"), nil
}

// spineOrder resolves container.xml -> OPF -> spine into the ordered
// list of chapter paths within the archive.
func spineOrder(entries map[string]*zip.File) ([]string, error) {
	container, ok := entries["META-INF/container.xml"]
	if !ok {
		return nil, fmt.Errorf("missing META-INF/container.xml")
	}
	var cont epubContainer
	if err := decodeXMLEntry(container, &cont); err != nil {
		return nil, fmt.Errorf("parse container.xml: %w", err)
	}
	if len(cont.Rootfiles) == 0 || cont.Rootfiles[0].FullPath == "" {
		return nil, fmt.Errorf("container.xml names no rootfile")
	}

	opfPath := cont.Rootfiles[0].FullPath
	opf, ok := entries[opfPath]
	if !ok {
		return nil, fmt.Errorf("rootfile %s not in archive", opfPath)
	}
	var pkg epubPackage
	if err := decodeXMLEntry(opf, &pkg); err != nil {
		return nil, fmt.Errorf("parse opf: %w", err)
	}

	hrefByID := make(map[string]string, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		if strings.Contains(item.MediaType, "html") {
			hrefByID[item.ID] = item.Href
		}
	}

	base := path.Dir(opfPath)
	var order []string
	for _, ref := range pkg.Spine.Itemrefs {
		href, ok := hrefByID[ref.IDRef]
		if !ok {
			continue
		}
		if base != "." {
			href = path.Join(base, href)
		}
		order = append(order, href)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("spine references no html items")
	}
	return order, nil
}

func htmlEntries(zr *zip.Reader) []string {
	var names []string
	for _, f := range zr.File {
		ext := strings.ToLower(path.Ext(f.Name))
		if ext == ".xhtml" || ext == ".html" || ext == ".htm" {
			names = append(names, f.Name)
		}
	}
	sort.Strings(names)
	return names
}

func decodeXMLEntry(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}
