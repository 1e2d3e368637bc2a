package cart

// Action is a cart transition. The set is closed: only the types in this
// file implement it.
type Action interface {
	isAction()
}

type AddItem struct{ Product Product }

type RemoveItem struct{ ProductID string }

type DeleteItem struct{ ProductID string }

type ClearCart struct{}

// Load adopts a restored snapshot; its totals are ignored and re-derived.
type Load struct{ Snapshot State }

func (AddItem) isAction()    {}
func (RemoveItem) isAction() {}
func (DeleteItem) isAction() {}
func (ClearCart) isAction()  {}
func (Load) isAction()       {}

// Reduce applies action to state and returns the next state. It never
// mutates the input.
func Reduce(state State, action Action) State {
	items := state.Clone().Items

	switch a := action.(type) {
	case AddItem:
		if i := state.indexOf(a.Product.ID); i >= 0 {
			items[i].Quantity++
			return derive(items)
		}
		return derive(append(items, LineItem{
			ProductID: a.Product.ID,
			Name:      a.Product.Name,
			UnitPrice: a.Product.Price,
			Quantity:  1,
			ImageRef:  a.Product.ImageRef,
		}))

	case RemoveItem:
		i := state.indexOf(a.ProductID)
		if i < 0 {
			return derive(items)
		}
		if items[i].Quantity <= 1 {
			return derive(append(items[:i], items[i+1:]...))
		}
		items[i].Quantity--
		return derive(items)

	case DeleteItem:
		if i := state.indexOf(a.ProductID); i >= 0 {
			items = append(items[:i], items[i+1:]...)
		}
		return derive(items)

	case ClearCart:
		return Empty()

	case Load:
		return derive(sanitize(a.Snapshot.Items))
	}
	return derive(items)
}
