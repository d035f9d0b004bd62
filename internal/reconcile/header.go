package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dunglas/httpsfv"
)

// ResultHeader carries the decision back to the notification sender as an
// RFC 8941 dictionary, e.g.
//
//	Reconcile-Result: action=update, reason=changed, quantity=0, available=?0
//	Reconcile-Result: action=noop, reason=untracked
const ResultHeader = "Reconcile-Result"

// HeaderValue serializes the action for ResultHeader.
func (a Action) HeaderValue() (string, error) {
	dict := httpsfv.NewDictionary()
	dict.Add("action", httpsfv.NewItem(httpsfv.Token(a.Kind)))
	dict.Add("reason", httpsfv.NewItem(httpsfv.Token(a.Reason)))
	if a.Kind == ActionUpdate {
		dict.Add("quantity", httpsfv.NewItem(int64(a.AvailableQuantity)))
		dict.Add("available", httpsfv.NewItem(a.IsAvailable))
	}
	return httpsfv.Marshal(dict)
}

// ParseHeaderValue is the inverse of HeaderValue. Unknown members are ignored.
func ParseHeaderValue(header string) (Action, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Action{}, errors.New("empty Reconcile-Result header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return Action{}, fmt.Errorf("invalid Reconcile-Result header: %w", err)
	}

	var a Action
	kind, err := tokenMember(dict, "action")
	if err != nil {
		return Action{}, err
	}
	a.Kind = ActionKind(kind)

	reason, err := tokenMember(dict, "reason")
	if err != nil {
		return Action{}, err
	}
	a.Reason = Reason(reason)

	if a.Kind != ActionUpdate {
		return a, nil
	}

	if item, ok := itemMember(dict, "quantity"); ok {
		n, ok := item.Value.(int64)
		if !ok {
			return Action{}, errors.New("quantity must be an integer")
		}
		a.AvailableQuantity = int(n)
		a.ObservedTotal = int(n)
	}
	if item, ok := itemMember(dict, "available"); ok {
		b, ok := item.Value.(bool)
		if !ok {
			return Action{}, errors.New("available must be a boolean")
		}
		a.IsAvailable = b
	}
	return a, nil
}

func itemMember(dict *httpsfv.Dictionary, key string) (httpsfv.Item, bool) {
	member, ok := dict.Get(key)
	if !ok {
		return httpsfv.Item{}, false
	}
	item, ok := member.(httpsfv.Item)
	return item, ok
}

func tokenMember(dict *httpsfv.Dictionary, key string) (string, error) {
	item, ok := itemMember(dict, key)
	if !ok {
		return "", fmt.Errorf("%s key not found in Reconcile-Result header", key)
	}
	tok, ok := item.Value.(httpsfv.Token)
	if !ok {
		return "", fmt.Errorf("%s value must be a token", key)
	}
	return string(tok), nil
}
