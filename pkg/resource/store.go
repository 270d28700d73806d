package resource

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/zurustar/outerworld/pkg/fileutil"
)

// DefaultWhitelist is the set of resources kept warm across part changes.
// 0x11 is the shared secondary polygon segment of the action parts.
var DefaultWhitelist = []int{0x11}

// Store is the resource cache. It is not safe for concurrent use; the frame
// loop owns it and calls EnterPart only between ticks.
type Store struct {
	fsys      fileutil.FileSystem
	list      []Descriptor
	cache     map[int][]byte
	loads     map[int]int
	whitelist map[int]struct{}
	current   Segments
	log       *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// WithWhitelist replaces the cross-part warm set.
func WithWhitelist(ids ...int) Option {
	return func(s *Store) {
		s.whitelist = make(map[int]struct{}, len(ids))
		for _, id := range ids {
			s.whitelist[id] = struct{}{}
		}
	}
}

// Open reads the resource index from fsys.
func Open(fsys fileutil.FileSystem, opts ...Option) (*Store, error) {
	s := &Store{
		fsys:  fsys,
		cache: make(map[int][]byte),
		loads: make(map[int]int),
		log:   slog.Default(),
	}
	WithWhitelist(DefaultWhitelist...)(s)
	for _, opt := range opts {
		opt(s)
	}

	data, err := fsys.ReadFile(IndexFile)
	if err != nil {
		return nil, newError(KindCorruptBank, -1, fmt.Errorf("failed to read %s: %w", IndexFile, err))
	}
	s.list, err = ParseIndex(data)
	if err != nil {
		return nil, err
	}
	s.log.Debug("Resource index loaded", "entries", len(s.list), "base", fsys.BasePath())
	return s, nil
}

// Load returns the unpacked payload of a resource, decompressing it on the
// first request. The returned slice is shared with the cache and must not be
// modified.
func (s *Store) Load(id int) ([]byte, error) {
	if id < 0 || id >= len(s.list) {
		return nil, newError(KindUnknownID, id, nil)
	}
	if data, ok := s.cache[id]; ok {
		return data, nil
	}

	d := &s.list[id]
	if d.State == NeverLoaded {
		return nil, newError(KindUnknownID, id, fmt.Errorf("%s has no bank payload", d.Type))
	}

	data, err := s.read(d)
	if err != nil {
		return nil, err
	}
	s.cache[id] = data
	s.loads[id]++
	d.State = Loaded
	s.log.Debug("Resource loaded", "id", id, "type", d.Type, "bank", d.Bank, "size", len(data))
	return data, nil
}

func (s *Store) read(d *Descriptor) ([]byte, error) {
	name := BankFile(d.Bank)
	packed, err := s.fsys.ReadRange(name, int64(d.Offset), int(d.PackedSize))
	if err != nil {
		return nil, newError(KindCorruptBank, d.ID, fmt.Errorf("failed to read %s: %w", name, err))
	}

	if !d.Compressed() {
		return packed, nil
	}
	data, err := Unpack(packed, int(d.UnpackedSize))
	if err != nil {
		return nil, newError(KindDecompressionFailed, d.ID, err)
	}
	return data, nil
}

// EnterPart drops every cached resource outside the whitelist and the part's
// bootstrap set, then loads the bootstrap set. A failure leaves the previous
// segments in place and must be treated as fatal by the caller.
func (s *Store) EnterPart(part Part) (Segments, error) {
	if !part.Valid() {
		return Segments{}, fmt.Errorf("%w: %d", ErrUnknownPart, part)
	}

	keep := make(map[int]struct{}, len(s.whitelist)+4)
	for id := range s.whitelist {
		keep[id] = struct{}{}
	}
	for _, id := range part.ids() {
		keep[id] = struct{}{}
	}
	dropped := 0
	for id := range s.cache {
		if _, ok := keep[id]; !ok {
			s.evict(id)
			dropped++
		}
	}

	pal, code, poly1, poly2 := part.BootstrapIDs()
	seg := Segments{Part: part}
	var err error
	if seg.Palette, err = s.Load(pal); err != nil {
		return Segments{}, fmt.Errorf("part %d palette: %w", part, err)
	}
	if seg.Bytecode, err = s.Load(code); err != nil {
		return Segments{}, fmt.Errorf("part %d bytecode: %w", part, err)
	}
	if seg.Polygon1, err = s.Load(poly1); err != nil {
		return Segments{}, fmt.Errorf("part %d polygons: %w", part, err)
	}
	if poly2 != noResource {
		if seg.Polygon2, err = s.Load(poly2); err != nil {
			return Segments{}, fmt.Errorf("part %d secondary polygons: %w", part, err)
		}
	}

	s.current = seg
	s.log.Info("Entered part", "part", part, "dropped", dropped, "cached", len(s.cache))
	return seg, nil
}

// Invalidate drops cached sounds, music, bitmaps and entries of unknown type.
// Palettes, bytecode and polygon segments stay.
func (s *Store) Invalidate() {
	for id := range s.cache {
		if !s.list[id].Type.persistent() {
			s.evict(id)
		}
	}
}

func (s *Store) evict(id int) {
	delete(s.cache, id)
	s.list[id].State = NotLoaded
}

// Current returns the segments of the part entered last.
func (s *Store) Current() Segments {
	return s.current
}

// Descriptor returns the index entry of a resource.
func (s *Store) Descriptor(id int) (Descriptor, bool) {
	if id < 0 || id >= len(s.list) {
		return Descriptor{}, false
	}
	return s.list[id], true
}

// Descriptors returns a copy of the whole index.
func (s *Store) Descriptors() []Descriptor {
	return slices.Clone(s.list)
}

// LoadCount returns how many times a resource was decompressed from its bank.
func (s *Store) LoadCount(id int) int {
	return s.loads[id]
}

// IsCached reports whether a resource is currently held in the cache.
func (s *Store) IsCached(id int) bool {
	_, ok := s.cache[id]
	return ok
}
