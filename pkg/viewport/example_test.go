package viewport_test

import (
	"fmt"

	"github.com/matzehuels/graphview/pkg/geom"
	"github.com/matzehuels/graphview/pkg/viewport"
)

func ExampleController() {
	store := viewport.NewStore(viewport.ViewBox{})
	proj := viewport.NewProjection(store, 800, 600)
	content := func() (geom.Rect, bool) { return geom.Rect{Width: 200, Height: 100}, true }
	ctrl := viewport.NewController(store, proj, content, viewport.Config{})

	fmt.Println(ctrl.SetInitialViewBox())

	ctrl.PanBy(100, 50)
	fmt.Println(store.Get())

	ctrl.ZoomBy(0.5)
	fmt.Println(store.Get())

	ctrl.Center()
	fmt.Println(store.Get())
	// Output:
	// 0 0 800 600
	// -100 -50 800 600
	// -100 -50 400 300
	// -100 -100 400 300
}

func ExampleStore_Subscribe() {
	store := viewport.NewStore(viewport.ViewBox{Width: 100, Height: 100})
	unsubscribe := store.Subscribe(func(vb viewport.ViewBox) {
		fmt.Println("view-box:", vb)
	})

	store.Set(viewport.ViewBox{X: 10, Width: 100, Height: 100})
	unsubscribe()
	store.Set(viewport.ViewBox{X: 20, Width: 100, Height: 100})
	// Output:
	// view-box: 10 0 100 100
}
