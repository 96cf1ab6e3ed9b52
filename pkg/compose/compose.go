// Package compose implements compose-time type propagation: walking a
// wire shard-by-shard, threading the current type, merging each shard's
// declared exposed/required variable sets, recording flow-stoppers, and
// memoizing repeat composes of the same sub-wire (§4.5).
package compose

import (
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/Voskan/shards/pkg/shard"
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/variable"
)

// Result is the outcome of composing a wire: its observable output type,
// the variable bindings it exposes to descendants, the bindings it still
// requires from an enclosing scope, and whether some shard along the way
// unconditionally stops the flow.
type Result struct {
	OutputType  *typesys.Type
	Exposed     []variable.Binding
	Required    []variable.Binding
	FlowStopper bool

	// DeepRequirements holds the required bindings that neither an
	// earlier shard of this same wire nor an exposed declaration already
	// in the shared scope satisfies (§4.5 step 3); each entry is also in
	// Required. A requirement that a parent wire exposes is not recorded.
	DeepRequirements []variable.Binding
}

// ShardSequence is the minimal view of a wire the composer needs: its
// ordered shards and declared input type. pkg/wire.Wire satisfies this.
type ShardSequence interface {
	Shards() []shard.Shard
	InputType() *typesys.Type
	// Key uniquely identifies this wire for recursion-guard and
	// memoization purposes (its composed-hash once known, or an identity
	// key before the first compose).
	Key() string
	// ComposedHash returns the previously recorded structural hash, or 0
	// if never composed.
	ComposedHash() uint64
	SetComposedHash(h uint64)
	CachedResult() (Result, bool)
	SetCachedResult(in *typesys.Type, r Result)
	// CachedInputType returns the input type the wire was composed with
	// the last time SetCachedResult was called, so a cache hit can be
	// conditioned on the presented input type matching the recorded one
	// (§4.5 step 5), not on the previous output type.
	CachedInputType() *typesys.Type
}

// Composer walks wires and memoizes their compose results. A single
// Composer instance is meant to live for the duration of one top-level
// compose call (a mesh schedule); its recursion guard and cache are not
// safe to reuse across unrelated composes without Reset.
type Composer struct {
	arena *typesys.Arena

	// visiting is the recursion guard (§4.5 step 4): wires currently on
	// the compose stack. Composing one again returns Any immediately.
	visiting map[string]bool

	// group deduplicates concurrent compose(wire) calls the same way
	// loaderGroup deduplicates concurrent cache loads: two sibling shards
	// referencing the same sub-wire compose it exactly once.
	group singleflight.Group

	// visited is keyed by Key() and cleared by New and Reset; the compose
	// walk does not record into it. The mesh keeps its own visited-wires
	// record (Mesh.MarkVisited, §4.9).
	visited map[string]Result
}

// New builds a Composer backed by its own Type arena.
func New() *Composer {
	return &Composer{
		arena:    typesys.NewArena(),
		visiting: make(map[string]bool),
		visited:  make(map[string]Result),
	}
}

// Reset discards the recursion guard, memoization cache and interned
// Type arena, preparing the Composer for an unrelated compose pass.
func (c *Composer) Reset() {
	c.arena.Reset()
	c.visiting = make(map[string]bool)
	c.visited = make(map[string]Result)
}

// Compose walks w start-to-end starting from inputType (or w.InputType()
// if inputType is nil), producing a Result.
func (c *Composer) Compose(w ShardSequence, inputType *typesys.Type, shared *variable.Scope) (Result, error) {
	key := w.Key()

	if c.visiting[key] {
		// Recursion guard (§4.5 step 4): the recursive call's output is
		// patched on unwind by the caller that already holds this wire's
		// in-progress Result; here we only need to avoid infinite descent.
		return Result{OutputType: typesys.AnyT}, nil
	}

	if cached, ok := w.CachedResult(); ok {
		presented := inputType
		if presented == nil {
			presented = w.InputType()
		}
		if typesys.Equal(w.CachedInputType(), presented) {
			if err := c.verifyRequired(cached, shared); err != nil {
				return Result{}, err
			}
			return cached, nil
		}
	}

	raw, err, _ := c.group.Do(key, func() (any, error) {
		return c.composeUncached(w, inputType, shared, key)
	})
	if err != nil {
		return Result{}, err
	}
	res := raw.(Result)
	if shared != nil {
		for _, b := range res.Exposed {
			shared.Declare(b.Name, b.Type)
		}
	}
	return res, nil
}

func (c *Composer) composeUncached(w ShardSequence, inputType *typesys.Type, shared *variable.Scope, key string) (Result, error) {
	c.visiting[key] = true
	defer delete(c.visiting, key)

	if shared == nil {
		shared = variable.NewScope(nil, nil, nil)
	}

	current := inputType
	if current == nil {
		current = w.InputType()
	}
	if current == nil {
		current = typesys.AnyT
	}

	result := Result{OutputType: current}
	exposedHere := make(map[string]bool)

	for _, s := range w.Shards() {
		out, exposed, required, stops, err := c.composeShard(s, current, shared, w)
		if err != nil {
			return Result{}, err
		}
		current = out

		for _, b := range exposed {
			shared.Declare(b.Name, b.Type)
			result.Exposed = append(result.Exposed, b)
			exposedHere[b.Name] = true
		}
		for _, b := range required {
			if exposedHere[b.Name] {
				continue
			}
			if _, ok := shared.Exposed[b.Name]; ok {
				continue
			}
			result.Required = append(result.Required, b)
			result.DeepRequirements = append(result.DeepRequirements, b)
		}
		if stops && !result.FlowStopper {
			result.FlowStopper = true
		}
	}

	result.OutputType = c.arena.Intern(current)
	w.SetComposedHash(typesys.Hash(result.OutputType))
	w.SetCachedResult(inputType, result)
	return result, nil
}

func (c *Composer) composeShard(s shard.Shard, current *typesys.Type, shared *variable.Scope, w ShardSequence) (
	out *typesys.Type, exposed, required []variable.Binding, stops bool, err error,
) {
	if composer, ok := s.(shard.Composer); ok {
		var deep []variable.Binding
		data := shard.InstanceData{InputType: current, Wire: w, Shared: shared, DeepRequirements: &deep}
		cr, cerr := composer.Compose(data)
		if cerr != nil {
			if ce, ok2 := cerr.(*shard.ComposeError); ok2 && !ce.Fatal {
				cerr = nil
			} else {
				return nil, nil, nil, false, cerr
			}
		}
		out = cr.OutputType
		exposed = cr.Exposed
		required = append(cr.Required, deep...)
		stops = cr.FlowStopper
	} else {
		out, err = pickCompatibleOutput(s, current)
		if err != nil {
			return nil, nil, nil, false, err
		}
		exposed = s.ExposedVariables()
		required = s.RequiredVariables()
	}
	if fs, ok := s.(shard.FlowStopper); ok && fs.StopsFlow() {
		stops = true
	}
	return out, exposed, required, stops, nil
}

// pickCompatibleOutput finds the first of s's declared (input, output)
// signature pairs whose input accepts `current`, per §4.5 step 2's
// fallback path for shards without a Compose hook.
func pickCompatibleOutput(s shard.Shard, current *typesys.Type) (*typesys.Type, error) {
	ins := s.InputTypes()
	outs := s.OutputTypes()
	for i, in := range ins {
		if typesys.Matches(current, in) {
			if i < len(outs) {
				return outs[i], nil
			}
			if len(outs) > 0 {
				return outs[0], nil
			}
			return typesys.AnyT, nil
		}
	}
	return nil, &shard.ComposeError{
		Shard: s.Name(),
		Msg:   fmt.Sprintf("no input signature accepts %v", current),
		Fatal: true,
	}
}

// verifyRequired checks that every previously required binding is still
// satisfiable in shared, raising ComposeError otherwise (§4.5 step 5).
func (c *Composer) verifyRequired(cached Result, shared *variable.Scope) error {
	if shared == nil {
		if len(cached.Required) > 0 {
			return &shard.ComposeError{Shard: "<cached>", Msg: "required variables unavailable", Fatal: true}
		}
		return nil
	}
	for _, b := range cached.Required {
		if _, ok := shared.Lookup(b.Name); !ok {
			if _, ok := shared.Exposed[b.Name]; !ok {
				return &shard.ComposeError{Shard: "<cached>", Msg: "required variable " + b.Name + " no longer satisfied", Fatal: true}
			}
		}
	}
	return nil
}
