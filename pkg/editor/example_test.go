package editor_test

import (
	"fmt"

	"github.com/matzehuels/nestgraph/pkg/editor"
	"github.com/matzehuels/nestgraph/pkg/geometry"
	"github.com/matzehuels/nestgraph/pkg/graph"
)

func Example() {
	ed := editor.New(nil)
	ed.AddContainer(graph.Entity{ID: "group", Size: geometry.Size{Width: 300, Height: 200}})
	ed.AddNode(graph.Entity{ID: "a", Position: geometry.Vec2{X: 500, Y: 40}})

	// Dragging a into the group re-parents it when the gesture ends.
	ed.Move([]string{"a"}, geometry.Vec2{X: -460})
	a, _ := ed.Store().Node("a")
	fmt.Println("parent:", a.ParentID)

	ed.Undo()
	a, _ = ed.Store().Node("a")
	fmt.Println("after undo:", a.ParentID == "", a.Position.X)
	// Output:
	// parent: group
	// after undo: true 500
}
