// Package domain defines the core entities of the CookAI session service.
package domain

import "time"

// User represents an authenticated CookAI account. A User value exists in
// memory exactly as long as a session is active.
type User struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	Avatar      string       `json:"avatar,omitempty"`
	JoinedDate  string       `json:"joined_date"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

// Preferences holds the onboarding sub-state of a user. A nil Preferences
// pointer means onboarding has not been completed yet.
type Preferences struct {
	Dietary          []string `json:"dietary,omitempty"`
	Allergies        []string `json:"allergies,omitempty"`
	FavoriteCuisines []string `json:"favorite_cuisines,omitempty"`
	Weight           *float64 `json:"weight,omitempty"`
	Height           *float64 `json:"height,omitempty"`
}

// UserPatch describes a shallow profile update. Nil fields are left
// untouched. Preferences are never part of a profile patch.
type UserPatch struct {
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
	Email  *string `json:"email,omitempty"`
}

// PreferencesPatch describes a partial preference update. Supplied fields
// replace the existing value wholesale, absent fields are preserved.
type PreferencesPatch struct {
	Dietary          *[]string `json:"dietary,omitempty"`
	Allergies        *[]string `json:"allergies,omitempty"`
	FavoriteCuisines *[]string `json:"favorite_cuisines,omitempty"`
	Weight           *float64  `json:"weight,omitempty"`
	Height           *float64  `json:"height,omitempty"`
}

// JoinedDateNow formats the join-date display string captured at account
// creation time. The value is immutable for the lifetime of the account.
func JoinedDateNow(now time.Time) string {
	return now.Format("January 2006")
}

// Apply merges the patch into the user, field by field.
func (u *User) Apply(patch UserPatch) {
	if u == nil {
		return
	}

	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Avatar != nil {
		u.Avatar = *patch.Avatar
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
}

// MergePreferences applies a partial update on top of existing preferences.
// Fields present in the patch replace the stored value wholesale; list fields
// are not unioned. Fields absent from the patch keep their previous value.
// The result is always a concrete value, even when both inputs are empty, so
// invoking the merge is what marks onboarding as completed.
func MergePreferences(existing *Preferences, patch PreferencesPatch) Preferences {
	var merged Preferences
	if existing != nil {
		merged = *existing
	}

	if patch.Dietary != nil {
		merged.Dietary = cloneStrings(*patch.Dietary)
	}
	if patch.Allergies != nil {
		merged.Allergies = cloneStrings(*patch.Allergies)
	}
	if patch.FavoriteCuisines != nil {
		merged.FavoriteCuisines = cloneStrings(*patch.FavoriteCuisines)
	}
	if patch.Weight != nil {
		w := *patch.Weight
		merged.Weight = &w
	}
	if patch.Height != nil {
		h := *patch.Height
		merged.Height = &h
	}

	return merged
}

// Clone returns a deep copy of the user, safe to hand out to callers.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}

	copied := *u
	if u.Preferences != nil {
		prefs := Preferences{
			Dietary:          cloneStrings(u.Preferences.Dietary),
			Allergies:        cloneStrings(u.Preferences.Allergies),
			FavoriteCuisines: cloneStrings(u.Preferences.FavoriteCuisines),
		}
		if u.Preferences.Weight != nil {
			w := *u.Preferences.Weight
			prefs.Weight = &w
		}
		if u.Preferences.Height != nil {
			h := *u.Preferences.Height
			prefs.Height = &h
		}
		copied.Preferences = &prefs
	}

	return &copied
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}

	copied := make([]string, len(values))
	copy(copied, values)
	return copied
}
