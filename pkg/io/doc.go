// Package io reads and writes diagram documents as JSON.
//
// # JSON Format
//
// A document has three top-level arrays. Each is optional on input; a missing
// array is read as empty.
//
//	{
//	  "nodes": [
//	    {"id": "a", "kind": "node", "label": "API", "position": {"x": 120, "y": 100},
//	     "size": {"width": 100, "height": 50}, "parentId": "c1",
//	     "ports": [{"id": "http", "label": "http"}]}
//	  ],
//	  "containers": [
//	    {"id": "c1", "kind": "container", "position": {"x": 100, "y": 50},
//	     "size": {"width": 300, "height": 300}, "nodeIds": ["a"], "collapsed": false}
//	  ],
//	  "edges": [
//	    {"id": "e1", "source": "a", "sourcePort": "http", "target": "b", "label": "calls"}
//	  ]
//	}
//
// Array order is significant: it is the insertion order of the store, which
// drives hit-test priority, and it is preserved exactly on export.
//
// # Import
//
// [ReadJSON] and [ImportJSON] never hand back a half-built store. When the
// input cannot be decoded, or decodes into an inconsistent graph (dangling
// parent, edge or port references, containment cycles), the failure is logged
// and an empty, usable store is returned together with a MALFORMED_INPUT
// error from pkg/errors:
//
//	s, err := io.ImportJSON("diagram.json")
//	if err != nil {
//	    // s is empty but valid
//	}
//
// # Export
//
// [WriteJSON] and [ExportJSON] write indented JSON. Export followed by import
// reproduces the store exactly.
package io
