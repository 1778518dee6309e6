package ldraw

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// OpenFunc opens the named output file for writing.
type OpenFunc func(name string) (io.WriteCloser, error)

// Code returns the text of every page under std. Documents with more than
// one page are written as "0 FILE" sections.
func (d *Document) Code(ctx *Context, std Standard) string {
	return string(d.code(ctx, std, d.pages))
}

func (d *Document) code(ctx *Context, std Standard, pages []*Page) []byte {
	var b CodeBuilder
	multi := len(pages) > 1
	for i, p := range pages {
		if multi {
			if i > 0 && std != StandardPartsLibrary {
				b.WriteBlank()
			}
			b.WriteLine("0 FILE " + p.name)
		}
		p.Emit(&b, NewEmitContext(ctx, std, p))
	}
	return b.Bytes()
}

// Save writes the document to its path and clears the modified flags.
func (d *Document) Save(ctx *Context) error {
	if err := d.checkAlive(); err != nil {
		return err
	}
	if d.path == "" {
		return fmt.Errorf("%w: document has no path", ErrInvalidArgument)
	}
	if err := os.WriteFile(d.path, d.code(ctx, StandardFull, d.pages), 0o644); err != nil {
		return fmt.Errorf("ldraw: save: %w", err)
	}
	d.MarkSaved()
	Logger().Info("ldraw: saved", "path", d.path, "pages", len(d.pages))
	return nil
}

// Export writes every page to its own file, named after the page.
func (d *Document) Export(ctx *Context, open OpenFunc) error {
	if err := d.checkAlive(); err != nil {
		return err
	}
	for _, p := range d.pages {
		if err := writeFile(open, p.name, d.code(ctx, StandardFull, []*Page{p})); err != nil {
			return err
		}
	}
	return nil
}

// Publish writes the document for distribution, leaving out inlined
// pages. A model becomes one repository file holding every page. Other
// documents become one library file per page, with inlined pages
// expanded where they are referenced.
func (d *Document) Publish(ctx *Context, open OpenFunc) error {
	if err := d.checkAlive(); err != nil {
		return err
	}
	var pages []*Page
	for _, p := range d.pages {
		if !p.inlined {
			pages = append(pages, p)
		}
	}
	if len(pages) == 0 {
		return fmt.Errorf("%w: nothing to publish", ErrInvalidArgument)
	}
	if d.IsModel() {
		return writeFile(open, pages[0].name, d.code(ctx, StandardRepository, pages))
	}
	for _, p := range pages {
		if err := writeFile(open, p.name, d.code(ctx, StandardPartsLibrary, []*Page{p})); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(open OpenFunc, name string, data []byte) (err error) {
	w, err := open(name)
	if err != nil {
		return fmt.Errorf("ldraw: open %s: %w", name, err)
	}
	defer func() {
		err = errors.Join(err, w.Close())
	}()
	if _, err = w.Write(data); err != nil {
		return fmt.Errorf("ldraw: write %s: %w", name, err)
	}
	return nil
}
