package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCommits(t *testing.T, git *fakeGit) Commits {
	t.Helper()
	schema := testSchema(t)

	raw := []string{
		logEntry("aaa1111", "Break the API", "Big changes.", [][2]string{{"Type", "api-break"}, {"Jira", "WEB-1"}}),
		logEntry("bbb2222", "Fix a bug", "Small fix.", [][2]string{{"Type", "bug"}, {"Jira", "WEB-2"}}),
		logEntry("ccc3333", "Add a feature", "New stuff.", [][2]string{{"Type", "feature"}, {"Jira", "WEB-3"}}),
		logEntry("ddd4444", "Typo [skip ci]", "", [][2]string{{"Type", "trivial"}}),
		logEntry("eee5555", "Another bug fix", "More fixes.", [][2]string{{"Type", "bug"}, {"Jira", "WEB-5"}}),
	}

	var out Commits
	for _, msg := range raw {
		c, err := NewCommit(msg, schema, git, "")
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

func shas(cs Commits) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.SHA()
	}
	return out
}

func TestFilterPreservesOrder(t *testing.T) {
	cs := testCommits(t, newFakeGit())

	bugs, err := cs.Filter("type", "bug")
	require.NoError(t, err)
	assert.Equal(t, []string{"bbb2222", "eee5555"}, shas(bugs))
}

func TestFilterExcludePartition(t *testing.T) {
	cs := testCommits(t, newFakeGit())

	kept, err := cs.Filter("type", "bug")
	require.NoError(t, err)
	dropped, err := cs.Exclude("type", "bug")
	require.NoError(t, err)

	assert.Len(t, kept, 2)
	assert.Len(t, dropped, 3)
	assert.Equal(t, len(cs), len(kept)+len(dropped))
}

func TestFilterNilValue(t *testing.T) {
	git := newFakeGit()
	git.tags["aaa1111"] = "v1.0"
	cs := testCommits(t, git)

	untagged, err := cs.Filter("tag", nil)
	require.NoError(t, err)
	assert.Len(t, untagged, 4)
	assert.NotContains(t, shas(untagged), "aaa1111")
}

func TestFilterByTagName(t *testing.T) {
	git := newFakeGit()
	git.tags["aaa1111"] = "v1.0"
	git.tags["bbb2222"] = "v1.0~1"
	cs := testCommits(t, git)

	// independently resolved tag objects compare by name
	tagged, err := cs.Filter("tag", NewTag("v1.0", git))
	require.NoError(t, err)
	assert.Equal(t, []string{"aaa1111", "bbb2222"}, shas(tagged))
}

func TestFilterUnknownAttr(t *testing.T) {
	cs := testCommits(t, newFakeGit())

	_, err := cs.Filter("bogus", "x")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestFilterMatchAnchored(t *testing.T) {
	cs := testCommits(t, newFakeGit())

	// anchored at the start: "Fix" only matches summaries that begin with it
	fixes, err := cs.FilterMatch("summary", "Fix")
	require.NoError(t, err)
	assert.Equal(t, []string{"bbb2222"}, shas(fixes))

	// an unanchored pattern needs an explicit wildcard prefix
	skipped, err := cs.FilterMatch("summary", `.*\[skip ci\].*`)
	require.NoError(t, err)
	assert.Equal(t, []string{"ddd4444"}, shas(skipped))
}

func TestFilterMatchNonString(t *testing.T) {
	cs := testCommits(t, newFakeGit())

	// booleans are not strings, so no record matches
	matched, err := cs.FilterMatch("valid", "true")
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestExcludeMatchComplement(t *testing.T) {
	cs := testCommits(t, newFakeGit())

	kept, err := cs.ExcludeMatch("summary", `.*\[skip ci\].*`)
	require.NoError(t, err)
	assert.Len(t, kept, 4)
	assert.NotContains(t, shas(kept), "ddd4444")
}

func TestFilterMatchBadPattern(t *testing.T) {
	cs := testCommits(t, newFakeGit())

	_, err := cs.FilterMatch("summary", "(unclosed")
	assert.Error(t, err)
	_, err = cs.ExcludeMatch("summary", "(unclosed")
	assert.Error(t, err)
}

func TestGroupFirstSeenOrder(t *testing.T) {
	cs := testCommits(t, newFakeGit())

	groups, err := cs.Group("type")
	require.NoError(t, err)
	require.Len(t, groups, 4)
	assert.Equal(t, "api-break", groups[0].Key)
	assert.Equal(t, "bug", groups[1].Key)
	assert.Equal(t, "feature", groups[2].Key)
	assert.Equal(t, "trivial", groups[3].Key)

	// both bug commits land in one bucket, in collection order
	assert.Equal(t, []string{"bbb2222", "eee5555"}, shas(groups[1].Commits))
}

func TestGroupMembership(t *testing.T) {
	cs := testCommits(t, newFakeGit())

	groups, err := cs.Group("type")
	require.NoError(t, err)

	total := 0
	for _, g := range groups {
		total += len(g.Commits)
	}
	assert.Equal(t, len(cs), total)
}

func TestGroupByTag(t *testing.T) {
	git := newFakeGit()
	git.tags["aaa1111"] = "dev1.2"
	git.tags["bbb2222"] = "v1.1~2"
	git.tags["ccc3333"] = "v1.1"
	cs := testCommits(t, git)

	groups, err := cs.GroupBy("tag", GroupOptions{AscendingKeys: true})
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, "dev1.2", groups[0].Key.(*Tag).Name())
	assert.Equal(t, "v1.1", groups[1].Key.(*Tag).Name())
	assert.Nil(t, groups[2].Key)
	assert.Equal(t, []string{"ddd4444", "eee5555"}, shas(groups[2].Commits))
}

func TestGroupByDescending(t *testing.T) {
	cs := testCommits(t, newFakeGit())

	groups, err := cs.GroupBy("type", GroupOptions{DescendingKeys: true})
	require.NoError(t, err)
	require.Len(t, groups, 4)
	assert.Equal(t, "trivial", groups[0].Key)
	assert.Equal(t, "api-break", groups[3].Key)
}

func TestGroupByDescendingWins(t *testing.T) {
	cs := testCommits(t, newFakeGit())

	groups, err := cs.GroupBy("type", GroupOptions{AscendingKeys: true, DescendingKeys: true})
	require.NoError(t, err)
	assert.Equal(t, "trivial", groups[0].Key)
}

func TestGroupByNonePlacement(t *testing.T) {
	git := newFakeGit()
	git.tags["aaa1111"] = "v1.0"
	cs := testCommits(t, git)

	groups, err := cs.GroupBy("tag", GroupOptions{NoneKeyFirst: true})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Nil(t, groups[0].Key)

	groups, err = cs.GroupBy("tag", GroupOptions{NoneKeyLast: true})
	require.NoError(t, err)
	assert.Nil(t, groups[1].Key)
}

func TestGroupByJiraIncludesNone(t *testing.T) {
	cs := testCommits(t, newFakeGit())

	// the trivial commit has no jira field; it groups under the null key
	groups, err := cs.GroupBy("jira", GroupOptions{AscendingKeys: true})
	require.NoError(t, err)
	require.Len(t, groups, 5)
	assert.Equal(t, "WEB-1", groups[0].Key)
	assert.Nil(t, groups[4].Key)
	assert.Equal(t, []string{"ddd4444"}, shas(groups[4].Commits))
}

func TestGroupUnknownAttr(t *testing.T) {
	cs := testCommits(t, newFakeGit())

	_, err := cs.Group("bogus")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestChainedQueries(t *testing.T) {
	cs := testCommits(t, newFakeGit())

	valid, err := cs.Filter("valid", true)
	require.NoError(t, err)
	nonTrivial, err := valid.Exclude("type", "trivial")
	require.NoError(t, err)

	assert.Equal(t, []string{"aaa1111", "bbb2222", "ccc3333", "eee5555"}, shas(nonTrivial))
}
