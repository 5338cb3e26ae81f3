// Package moods is the fixed catalog of mood labels and the genre seeds each one maps to.
//
// Labels are matched case-insensitively: "Happy", "happy" and " HAPPY " all resolve to [Happy].
// Unknown labels fail with [InvalidMoodError]; there is no fallback seed list.
//
// Seeds are ordered. The generation workflow truncates from the end when the provider rejects a
// seed set, so the most representative genre for a mood comes first.
package moods
