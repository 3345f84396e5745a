// Package query holds stateless operations over an ordered list of users.
// The input list may contain several records with the same ID; none of the
// functions here deduplicate unless that is their purpose. Only TrimAllEmails
// mutates its argument.
package query

import (
	"strings"

	domain "github.com/AmirHosein-Gharaati/learnstreamapi/internal/domain/user"
)

// GroupByEmailProvider counts users per email provider.
// Providers with no users are absent from the result.
func GroupByEmailProvider(users []domain.User) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, u := range users {
		provider, err := u.EmailProvider()
		if err != nil {
			return nil, err
		}
		counts[provider]++
	}
	return counts, nil
}

// CountInterest counts every (user, interest) pair equal to interest.
func CountInterest(users []domain.User, interest string) int64 {
	var n int64
	for _, u := range users {
		for _, i := range u.Interests {
			if i == interest {
				n++
			}
		}
	}
	return n
}

// DistinctInterests returns the union of all interests.
func DistinctInterests(users []domain.User) Set[string] {
	s := NewSet[string]()
	for _, u := range users {
		for _, i := range u.Interests {
			s.Add(i)
		}
	}
	return s
}

// CountByID returns how many records carry each ID.
func CountByID(users []domain.User) map[int64]int64 {
	counts := make(map[int64]int64, len(users))
	for _, u := range users {
		counts[u.ID]++
	}
	return counts
}

// DuplicatedIDs returns the IDs that appear on more than one record.
func DuplicatedIDs(users []domain.User) Set[int64] {
	s := NewSet[int64]()
	for id, n := range CountByID(users) {
		if n > 1 {
			s.Add(id)
		}
	}
	return s
}

// DistinctIDs returns every ID once.
func DistinctIDs(users []domain.User) Set[int64] {
	s := NewSet[int64]()
	for _, u := range users {
		s.Add(u.ID)
	}
	return s
}

// CountByEmailSuffix counts users whose email ends with suffix.
func CountByEmailSuffix(users []domain.User, suffix string) int64 {
	var n int64
	for _, u := range users {
		if u.HasEmailSuffix(suffix) {
			n++
		}
	}
	return n
}

// FilterBySuffixAndMinAge keeps users whose email ends with suffix and whose
// age is at least minAge, in their original order.
func FilterBySuffixAndMinAge(users []domain.User, suffix string, minAge int) []domain.User {
	out := make([]domain.User, 0)
	for _, u := range users {
		if u.HasEmailSuffix(suffix) && u.IsAtLeast(minAge) {
			out = append(out, u)
		}
	}
	return out
}

// FirstWithMinAge returns the first user aged minAge or older.
func FirstWithMinAge(users []domain.User, minAge int) (domain.User, bool) {
	for _, u := range users {
		if u.IsAtLeast(minAge) {
			return u, true
		}
	}
	return domain.User{}, false
}

// TrimAllEmails strips leading and trailing whitespace from every email in place.
func TrimAllEmails(users []domain.User) {
	for i := range users {
		users[i].Email = strings.TrimSpace(users[i].Email)
	}
}

// TrimmedEmails returns a copy of users with trimmed emails.
func TrimmedEmails(users []domain.User) []domain.User {
	out := domain.CloneAll(users)
	TrimAllEmails(out)
	return out
}

// FullNames returns "First Last" for each user in order.
func FullNames(users []domain.User) []string {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.FullName()
	}
	return names
}

// FindByID returns the first user with the given ID.
func FindByID(users []domain.User, id int64) (domain.User, bool) {
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.User{}, false
}

// FindByIDs looks up each requested ID in request order and returns the first
// match for each. IDs with no match are skipped.
func FindByIDs(users []domain.User, ids []int64) []domain.User {
	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := FindByID(users, id); ok {
			out = append(out, u)
		}
	}
	return out
}
