package ldraw

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gogpu/ldraw/geom"
)

// ProgressFunc is told the progress of a load: -1 once at the start, then
// a percentage. Returning false cancels the load with ErrCancelled.
type ProgressFunc func(name string, progress int) bool

// LoadOption configures Parse and Open.
type LoadOption func(*loadOptions)

type loadOptions struct {
	progress ProgressFunc
	validate bool
}

// WithProgress reports load progress to fn.
func WithProgress(fn ProgressFunc) LoadOption {
	return func(o *loadOptions) { o.progress = fn }
}

// WithoutValidation skips the reference, identity and policy checks run
// after parsing. The document may then violate insertion rules.
func WithoutValidation() LoadOption {
	return func(o *loadOptions) { o.validate = false }
}

// Open reads the document at path.
func Open(ctx *Context, path string, opts ...LoadOption) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ldraw: open: %w", err)
	}
	defer f.Close()
	return Parse(ctx, f, path, opts...)
}

// Parse reads a document from r. Path names the document and becomes the
// name of the first page when the text has no FILE lines.
//
// Any error aborts the load; no partial document is returned.
func Parse(ctx *Context, r io.Reader, path string, opts ...LoadOption) (*Document, error) {
	if ctx == nil {
		ctx = DefaultContext()
	}
	o := loadOptions{validate: true}
	for _, opt := range opts {
		opt(&o)
	}
	doc := NewDocument(path)
	doc.loading = true
	p := &parser{
		ctx:      ctx,
		doc:      doc,
		progress: o.progress,
		total:    sizeOf(r),
		declared: make(map[*Page]string),
		last:     math.MinInt,
	}
	if err := p.run(r, path); err != nil {
		doc.Dispose()
		return nil, err
	}
	if o.validate {
		if err := validate(ctx, doc, p.declared); err != nil {
			doc.Dispose()
			return nil, err
		}
	}
	doc.loading = false
	Logger().Info("ldraw: loaded", "path", path, "pages", doc.PageCount(), "modified", doc.modified)
	return doc, nil
}

// ParseElement reads a single element line: a type 1 to 5 line, a
// comment, a colour definition, a culling flag, a group or another
// meta-command.
func ParseElement(ctx *Context, line string) (Element, error) {
	if ctx == nil {
		ctx = DefaultContext()
	}
	p := &parser{ctx: ctx}
	e, err := p.element(strings.TrimSpace(line))
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%w: %q is not an element", ErrFormat, line)
	}
	return e, nil
}

func sizeOf(r io.Reader) int64 {
	switch v := r.(type) {
	case interface{ Stat() (os.FileInfo, error) }:
		if fi, err := v.Stat(); err == nil {
			return fi.Size()
		}
	case interface{ Size() int64 }:
		return v.Size()
	case interface{ Len() int }:
		return int64(v.Len())
	}
	return 0
}

type texState uint8

const (
	texNone texState = iota
	texTextured
	texFallback
	texNext
)

type parser struct {
	ctx *Context
	doc *Document

	progress ProgressFunc
	name     string
	total    int64
	offset   int64
	last     int

	page     *Page
	step     *Step
	line     int
	inHeader bool
	first    bool
	skipping bool
	// declared maps pages to the name given by their Name: header.
	declared map[*Page]string

	tex        *Texmap
	texMode    texState
	invertNext bool
}

func (p *parser) report(progress int) error {
	if p.progress == nil || progress == p.last {
		return nil
	}
	p.last = progress
	if !p.progress(p.name, progress) {
		return ErrCancelled
	}
	return nil
}

func (p *parser) run(r io.Reader, path string) error {
	p.name = path
	if err := p.report(-1); err != nil {
		return err
	}
	br := bufio.NewReader(r)
	for {
		raw, err := br.ReadString('\n')
		if len(raw) > 0 {
			p.offset += int64(len(raw))
			p.line++
			if perr := p.handle(strings.TrimSpace(raw), path); perr != nil {
				return perr
			}
			if p.total > 0 {
				if rerr := p.report(int(min(p.offset*100/p.total, 100))); rerr != nil {
					return rerr
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("ldraw: read %s: %w", path, err)
		}
	}
	if err := p.finishPage(); err != nil {
		return err
	}
	Logger().Debug("ldraw: parsed", "path", path, "lines", p.line, "bytes", p.offset)
	return p.report(100)
}

func (p *parser) errorf(text string, err error) error {
	name := ""
	if p.page != nil {
		name = p.page.name
	}
	return &ParseError{Page: name, Line: p.line, Text: text, Err: err}
}

// handle processes one trimmed line.
func (p *parser) handle(text, path string) error {
	if text == "" {
		return nil
	}
	fields := strings.Fields(text)
	if fields[0] == "0" && len(fields) >= 2 {
		switch strings.ToUpper(fields[1]) {
		case "FILE":
			if err := p.finishPage(); err != nil {
				return err
			}
			name := strings.TrimSpace(text[strings.Index(text, fields[1])+len(fields[1]):])
			if name == "" {
				return p.errorf(text, errors.New("FILE without a name"))
			}
			return p.startPage(name)
		case "NOFILE":
			if err := p.finishPage(); err != nil {
				return err
			}
			p.skipping = true
			return nil
		}
	}
	if p.skipping {
		return nil
	}
	if p.page == nil {
		name := filepath.Base(path)
		if path == "" || name == "." || name == string(filepath.Separator) {
			name = "untitled.ldr"
		}
		if err := p.startPage(name); err != nil {
			return err
		}
	}
	if p.inHeader {
		done, err := p.header(text, fields)
		if err != nil {
			return p.errorf(text, err)
		}
		p.first = false
		if done {
			return nil
		}
		p.inHeader = false
	}
	return p.body(text)
}

func (p *parser) startPage(name string) error {
	p.page = newPage(name)
	p.step = NewStep()
	p.page.appendStepUnchecked(p.step)
	p.doc.appendPageUnchecked(p.page)
	p.inHeader = true
	p.first = true
	p.skipping = false
	p.tex, p.texMode = nil, texNone
	p.invertNext = false
	return nil
}

func (p *parser) finishPage() error {
	if p.page == nil {
		return nil
	}
	if p.invertNext {
		p.container().AppendUnchecked(NewBFCFlag(BFCInvertNext))
		p.invertNext = false
	}
	if p.texMode == texTextured || p.texMode == texFallback {
		return p.errorf("", errors.New("TEXMAP without END"))
	}
	if n := len(p.page.steps); n > 1 && p.page.steps[n-1].Len() == 0 {
		last := p.page.steps[n-1]
		p.page.subs[n-1]()
		p.page.steps = p.page.steps[:n-1]
		p.page.subs = p.page.subs[:n-1]
		last.page = nil
		last.Dispose()
	}
	p.page, p.step = nil, nil
	return nil
}

// header consumes a header line. It returns false for the first line
// that is not part of the header.
func (p *parser) header(text string, fields []string) (bool, error) {
	if fields[0] != "0" {
		return false, nil
	}
	rest := strings.TrimSpace(strings.TrimPrefix(text, "0"))
	keyword := ""
	if len(fields) > 1 {
		keyword = fields[1]
	}
	after := strings.TrimSpace(strings.TrimPrefix(rest, keyword))
	pg := p.page
	switch {
	case keyword == "Name:":
		p.declared[pg] = after
	case keyword == "Author:":
		pg.author = after
	case keyword == "!LDRAW_ORG" || keyword == "LDRAW_ORG":
		typ, update, _ := strings.Cut(after, " UPDATE ")
		if t, ok := ParsePageType(typ); ok {
			pg.pageType = t
		}
		pg.update = strings.TrimSpace(update)
	case keyword == "!LICENSE":
		pg.license = after
	case keyword == "BFC" && len(fields) > 2 && strings.EqualFold(fields[2], "CERTIFY"):
		pg.bfc = BFCCertifyCCW
		if len(fields) > 3 && strings.EqualFold(fields[3], "CW") {
			pg.bfc = BFCCertifyCW
		}
	case keyword == "BFC" && len(fields) > 2 && strings.EqualFold(fields[2], "NOCERTIFY"):
		pg.bfc = BFCNoCertify
	case keyword == "!CATEGORY":
		pg.category = after
	case keyword == "!KEYWORDS":
		for _, k := range strings.Split(after, ",") {
			if k = strings.TrimSpace(k); k != "" {
				pg.keywords = append(pg.keywords, k)
			}
		}
	case keyword == "!HELP":
		pg.help = append(pg.help, after)
	case keyword == "!HISTORY":
		pg.history = append(pg.history, after)
	case p.first && !isBodyMeta(keyword):
		pg.title = rest
	default:
		return false, nil
	}
	return true, nil
}

// isBodyMeta reports keywords that start the body even on the first line.
func isBodyMeta(keyword string) bool {
	switch keyword {
	case "STEP", "ROTSTEP", "!COLOUR", "BFC", "GROUP", "!TEXMAP", "!:", "MLCAD", "GHOST", "//":
		return true
	}
	return false
}

func (p *parser) container() *Collection {
	switch p.texMode {
	case texTextured, texNext:
		return p.tex.textured
	case texFallback:
		return p.tex.fallback
	}
	return &p.step.Collection
}

// decoration holds the prefixes stripped from a line.
type decoration struct {
	group   string
	hidden  bool
	ghosted bool
}

func stripPrefixes(text string) (string, decoration) {
	var d decoration
	for {
		switch {
		case strings.HasPrefix(text, groupPrefix):
			rest := strings.TrimSpace(text[len(groupPrefix):])
			name, tail, _ := strings.Cut(rest, " ")
			d.group = name
			text = strings.TrimSpace(tail)
		case strings.HasPrefix(text, hiddenPrefix):
			d.hidden = true
			text = strings.TrimSpace(text[len(hiddenPrefix):])
		case strings.HasPrefix(text, ghostPrefix):
			d.ghosted = true
			text = strings.TrimSpace(text[len(ghostPrefix):])
		default:
			return text, d
		}
	}
}

func (p *parser) body(text string) error {
	text, deco := stripPrefixes(text)
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	if fields[0] == "0" && len(fields) > 1 {
		handled, err := p.structural(text, fields)
		if err != nil {
			return p.errorf(text, err)
		}
		if handled {
			return nil
		}
	}
	e, err := p.element(text)
	if err != nil {
		return p.errorf(text, err)
	}
	if e == nil {
		return nil
	}
	p.decorate(e, deco)
	return p.add(e)
}

// add places e in the current container, applying a pending INVERTNEXT.
func (p *parser) add(e Element) error {
	c := p.container()
	if p.invertNext {
		p.invertNext = false
		if r, ok := e.(*Reference); ok {
			r.invert = true
		} else {
			c.AppendUnchecked(NewBFCFlag(BFCInvertNext))
		}
	}
	c.AppendUnchecked(e)
	if p.texMode == texNext {
		p.tex, p.texMode = nil, texNone
	}
	return nil
}

func (p *parser) decorate(e Element, d decoration) {
	if d.group != "" {
		if g, ok := e.(interface{ groupable() *GroupableBase }); ok {
			g.groupable().groupName = d.group
		}
	}
	switch v := e.(type) {
	case *Reference:
		v.visible, v.ghosted = !d.hidden, d.ghosted
	case *Texmap:
		v.visible = !d.hidden
	default:
		if g, ok := graphicOf(e); ok {
			g.visible, g.ghosted = !d.hidden, d.ghosted
		}
	}
}

// structural handles lines that shape the tree rather than add an
// element.
func (p *parser) structural(text string, fields []string) (bool, error) {
	switch strings.ToUpper(fields[1]) {
	case "STEP":
		return true, p.endStep(StepAdditive, 0, 0, 0)
	case "ROTSTEP":
		if len(fields) == 3 && strings.EqualFold(fields[2], "END") {
			return true, p.endStep(StepReset, 0, 0, 0)
		}
		if len(fields) < 5 || len(fields) > 6 {
			return true, errors.New("ROTSTEP needs three angles")
		}
		a, err := parseFloats(fields[2:5])
		if err != nil {
			return true, err
		}
		mode := StepRelative
		if len(fields) == 6 {
			switch strings.ToUpper(fields[5]) {
			case "REL":
			case "ABS":
				mode = StepAbsolute
			case "ADD":
				mode = StepAdditive
			default:
				return true, fmt.Errorf("ROTSTEP mode %q", fields[5])
			}
		}
		return true, p.endStep(mode, a[0], a[1], a[2])
	case "BFC":
		rest := strings.ToUpper(strings.Join(fields[2:], " "))
		switch {
		case rest == "INVERTNEXT":
			p.invertNext = true
			return true, nil
		case strings.HasPrefix(rest, "CERTIFY"):
			p.page.bfc = BFCCertifyCCW
			if strings.HasSuffix(rest, " CW") {
				p.page.bfc = BFCCertifyCW
			}
			return true, nil
		case rest == "NOCERTIFY":
			p.page.bfc = BFCNoCertify
			return true, nil
		}
	case "!TEXMAP":
		return true, p.texmap(fields[2:])
	case "!:":
		if p.texMode != texTextured {
			return true, errors.New("texture continuation outside TEXMAP START")
		}
		inner := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text[1:]), "!:"))
		inner, deco := stripPrefixes(inner)
		e, err := p.element(inner)
		if err != nil {
			return true, err
		}
		if e != nil {
			p.decorate(e, deco)
			return true, p.add(e)
		}
		return true, nil
	}
	return false, nil
}

func (p *parser) texmap(fields []string) error {
	if len(fields) == 0 {
		return errors.New("TEXMAP without command")
	}
	switch strings.ToUpper(fields[0]) {
	case "START", "NEXT":
		if p.texMode != texNone {
			return fmt.Errorf("%w: nested TEXMAP", ErrFormat)
		}
		t, err := parseTexmapHeader(fields[1:])
		if err != nil {
			return err
		}
		next := strings.EqualFold(fields[0], "NEXT")
		t.next = next
		if err := p.add(t); err != nil {
			return err
		}
		p.tex = t
		p.texMode = texTextured
		if next {
			p.texMode = texNext
		}
		return nil
	case "FALLBACK":
		if p.texMode != texTextured {
			return errors.New("TEXMAP FALLBACK without START")
		}
		p.texMode = texFallback
		return nil
	case "END":
		if p.texMode != texTextured && p.texMode != texFallback {
			return errors.New("TEXMAP END without START")
		}
		p.tex, p.texMode = nil, texNone
		return nil
	}
	return fmt.Errorf("TEXMAP command %q", fields[0])
}

func (p *parser) endStep(mode StepMode, x, y, z float64) error {
	if p.texMode != texNone {
		return errors.New("step boundary inside TEXMAP")
	}
	if !validAngle(x) || !validAngle(y) || !validAngle(z) {
		return fmt.Errorf("%w: step angles out of range", ErrInvalidArgument)
	}
	p.step.mode, p.step.x, p.step.y, p.step.z = mode, x, y, z
	p.step = NewStep()
	p.page.appendStepUnchecked(p.step)
	return nil
}

// element parses a line into an element. It returns nil for lines that
// produce nothing.
func (p *parser) element(text string) (Element, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, nil
	}
	switch fields[0] {
	case "0":
		return p.meta(text, fields)
	case "1":
		return parseReference(text, fields)
	case "2", "3", "4", "5":
		return parseGraphic(fields)
	}
	return nil, fmt.Errorf("%w: unknown line type %q", ErrFormat, fields[0])
}

func (p *parser) meta(text string, fields []string) (Element, error) {
	if len(fields) == 1 {
		c := NewComment("")
		c.slash = false
		return c, nil
	}
	rest := strings.TrimSpace(text[1:])
	switch fields[1] {
	case "//":
		return NewComment(strings.TrimSpace(strings.TrimPrefix(rest, "//"))), nil
	case "!COLOUR":
		return ParseColour(text)
	case "BFC":
		if mode, ok := ParseBFCMode(strings.Join(fields[2:], " ")); ok {
			return NewBFCFlag(mode), nil
		}
	case "GROUP":
		if len(fields) == 4 {
			if _, err := strconv.Atoi(fields[2]); err == nil {
				if g, err := NewGroup(fields[3]); err == nil {
					return g, nil
				}
			}
		}
	}
	if e, ok, err := p.ctx.Registry.parseMeta(p.ctx, rest); ok {
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		return e, nil
	}
	return plainMeta(rest), nil
}

var graphicFields = map[string]int{"2": 8, "3": 11, "4": 14, "5": 14}

func parseGraphic(fields []string) (Element, error) {
	if n := graphicFields[fields[0]]; len(fields) != n {
		return nil, fmt.Errorf("%w: type %s line needs %d fields, got %d", ErrFormat, fields[0], n, len(fields))
	}
	colour, err := ParseColourCode(fields[1])
	if err != nil {
		return nil, err
	}
	nums, err := parseFloats(fields[2:])
	if err != nil {
		return nil, err
	}
	v := make([]geom.Vector3, len(nums)/3)
	for i := range v {
		v[i] = geom.V3(nums[i*3], nums[i*3+1], nums[i*3+2])
	}
	switch fields[0] {
	case "2":
		return NewLine(colour, v[0], v[1]), nil
	case "3":
		return NewTriangle(colour, v[0], v[1], v[2]), nil
	case "4":
		return NewQuadrilateral(colour, v[0], v[1], v[2], v[3]), nil
	}
	return NewOptionalLine(colour, v[0], v[1], v[2], v[3]), nil
}

func parseReference(text string, fields []string) (Element, error) {
	if len(fields) < 15 {
		return nil, fmt.Errorf("%w: type 1 line needs 15 fields, got %d", ErrFormat, len(fields))
	}
	colour, err := ParseColourCode(fields[1])
	if err != nil {
		return nil, err
	}
	n, err := parseFloats(fields[2:14])
	if err != nil {
		return nil, err
	}
	name := strings.Join(fields[14:], " ")
	m := geom.Affine(n[0], n[1], n[2], n[3], n[4], n[5], n[6], n[7], n[8], n[9], n[10], n[11])
	r := newReference(colour, m, name)
	r.raw = text
	return r, nil
}
