package broadcast

import (
	"fmt"
	"strings"

	"separation/internal/core/domain/model/kernel"
	"separation/internal/pkg/errs"
)

// FleetTopic carries every event of every order.
const FleetTopic = "fleet"

const orderTopicPrefix = "order:"

// OrderTopic is the topic of a single order.
func OrderTopic(id kernel.UUID) string {
	return orderTopicPrefix + id.String()
}

// ParseTopic accepts "fleet" or "order:<uuid>" and returns the canonical form.
func ParseTopic(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == FleetTopic {
		return s, nil
	}
	raw, ok := strings.CutPrefix(s, orderTopicPrefix)
	if !ok {
		return "", errs.NewValueIsInvalidErrorWithCause(
			"topic",
			fmt.Errorf("%q is neither %q nor %q<order id>", s, FleetTopic, orderTopicPrefix),
		)
	}
	id, err := kernel.UUIDFromString(raw)
	if err != nil {
		return "", errs.NewValueIsInvalidErrorWithCause("topic", err)
	}
	return OrderTopic(id), nil
}
