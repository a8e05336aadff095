// Package definition compiles YAML statechart definitions into templates.
//
// A definition mirrors the Builder scopes. Callbacks are referenced by name
// and resolved through a Registry:
//
//	doActions: false
//	regions:
//	  - initial: Locked
//	    states:
//	      - name: Locked
//	        transitions:
//	          - {name: Unlock, event: coin, to: [Unlocked], action: thank}
//	      - name: Unlocked
//	        entry: unlock
//	        transitions:
//	          - {name: Lock, event: push, to: [Locked]}
//
// Events are strings; a transition without an event is a completion
// transition. The top level holds exactly one region, the root region.
package definition
