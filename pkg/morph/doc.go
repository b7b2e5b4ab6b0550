// Package morph composes reconciliation plugins.
//
// A plugin is a vdom.Hooks value: a bundle of lifecycle callbacks that
// observes or steers a vdom.Reconcile pass. Compose folds any number of
// plugins, plus an optional base configuration, into a single vdom.Hooks
// whose callbacks run every constituent's callback in order:
//
//	hooks, err := morph.Compose([]vdom.Hooks{
//	    attrpersist.New(),
//	    transition.New(sink),
//	}, &vdom.Hooks{GetNodeKey: byID})
//	if err != nil {
//	    return err
//	}
//	patches, err := vdom.Reconcile(prev, next, hooks)
//
// # Combination strategies
//
// Each hook has a fixed strategy (see Hook.Strategy):
//
//   - StrategyThreadNode (beforeNodeAdded): the decision of one link feeds
//     the next. Veto stops the chain, Keep passes the node on unchanged,
//     Replace passes the replacement on. A zero Decision from a link that is
//     not the last is a ProtocolError.
//   - StrategyThreadElement (beforeElementUpdated): the same, threading the
//     candidate element while the existing element is passed unchanged.
//   - StrategyGate (beforeElementChildrenUpdated, beforeNodeDiscarded): false
//     stops the chain and is the result; otherwise the next link decides.
//   - StrategyFanOut (nodeAdded, nodeDiscarded, elementUpdated): every link
//     runs.
//
// The base configuration always runs first. getNodeKey and childrenOnly are
// reserved: only the base may set them, and they are copied verbatim.
// Base builds that configuration from a children-only flag and a key
// attribute.
package morph
