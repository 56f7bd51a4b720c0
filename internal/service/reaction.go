package service

import "github.com/Baaaki/newsletter-app/internal/models"

// ApplyReaction runs one transition of the like/dislike toggle for userID.
// The user is first removed from the opposite set, then their membership
// in the action's own set is flipped, so a repeated action returns the
// user to neutral and the two sets never share a member. The inputs are
// not modified.
func ApplyReaction(likes, dislikes []string, userID string, action models.ReactionAction) ([]string, []string, error) {
	if !action.Valid() {
		return nil, nil, ErrInvalidAction
	}

	switch action {
	case models.ReactionLike:
		dislikes = without(dislikes, userID)
		likes = toggled(likes, userID)
	case models.ReactionDislike:
		likes = without(likes, userID)
		dislikes = toggled(dislikes, userID)
	}
	return likes, dislikes, nil
}

func toggled(set []string, id string) []string {
	if contains(set, id) {
		return without(set, id)
	}
	out := make([]string, 0, len(set)+1)
	out = append(out, set...)
	return append(out, id)
}

func without(set []string, id string) []string {
	out := make([]string, 0, len(set))
	for _, v := range set {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func contains(set []string, id string) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}
