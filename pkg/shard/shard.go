// Package shard defines the operator contract every shard implements:
// identity, static type possibilities, parameters, the declared
// variable contract, the optional compose-time specialization hook, and
// the warmup/activate/cleanup lifecycle (§4.4).
package shard

import (
	"github.com/Voskan/shards/pkg/typesys"
	"github.com/Voskan/shards/pkg/value"
	"github.com/Voskan/shards/pkg/variable"
)

// Parameter describes one configuration slot exposed by Parameters().
type Parameter struct {
	Name    string
	Help    string
	Types   []*typesys.Type
	Default value.Value
}

// InstanceData is passed to Compose; it carries everything a shard needs
// to specialize its output type for the concrete input it will receive.
type InstanceData struct {
	InputType *typesys.Type

	// Wire identifies the wire being composed, opaque to the shard itself
	// (shards never mutate it directly; they return declarations that the
	// composer folds in).
	Wire any

	// Shared is the exposed-variable set visible to this point in the
	// compose walk; shards read it to resolve ContextVar parameters.
	Shared *variable.Scope

	// NextOutputHint is the output type the following shard would prefer,
	// when known (rarely used; mainly by shards with ambiguous output).
	NextOutputHint *typesys.Type

	// DeepRequirements, when non-nil, collects required Bindings this
	// shard could not resolve locally so the composer can propagate them
	// to the enclosing wire (§4.5 step 3).
	DeepRequirements *[]variable.Binding

	// OnWorkerThread is true when this shard is being composed as part of
	// a parallel-runner worker-thread clone (§4.12); some shards disallow
	// running off the mesh's owning thread and consult this flag.
	OnWorkerThread bool
}

// ComposeResult is what Shard.Compose returns: the specialized output
// type plus this shard's contribution to the wire's exposed/required
// sets and whether it is a flow-stopper (§4.5).
type ComposeResult struct {
	OutputType   *typesys.Type
	Exposed      []variable.Binding
	Required     []variable.Binding
	FlowStopper  bool
}

// Shard is the operator contract every node in a wire implements.
type Shard interface {
	Name() string
	Hash() uint64
	Help() string

	InputTypes() []*typesys.Type
	OutputTypes() []*typesys.Type

	Parameters() []Parameter
	SetParam(index int, v value.Value) error
	GetParam(index int) (value.Value, error)

	RequiredVariables() []variable.Binding
	ExposedVariables() []variable.Binding

	Warmup(ctx *Context) error
	Cleanup()

	Activate(ctx *Context, input value.Value) (value.Value, error)
}

// Composer is implemented by shards that specialize their output type at
// compose time instead of declaring a static OutputTypes() possibility
// set (§4.4 compose(InstanceData)).
type Composer interface {
	Compose(data InstanceData) (ComposeResult, error)
}

// FlowStopper is implemented by shards whose activation unconditionally
// escapes the wire's normal flow (Return/Restart/Stop), so the composer
// can record the wire's observable output at this point even though
// later shards still compose (§4.5 step 2).
type FlowStopper interface {
	StopsFlow() bool
}
