package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/build.sbt b/build.sbt
index 3b18e51..a0b2c3d 100644
--- a/build.sbt
+++ b/build.sbt
@@ -3 +3 @@ val zioVersion = "2.0.0"
-libraryDependencies += "dev.zio" %% "zio" % "2.0.0"
+libraryDependencies += "dev.zio" %% "zio" % "2.0.1"
@@ -10,0 +11,2 @@ lazy val root = project
+  .settings(
+  )
diff --git a/project/Old.scala b/project/Old.scala
deleted file mode 100644
index 1111111..0000000
--- a/project/Old.scala
+++ /dev/null
@@ -1,3 +0,0 @@
-object Old
-
-
diff --git a/project/Deps.scala b/project/Deps.scala
index 2222222..3333333 100644
--- a/project/Deps.scala
+++ b/project/Deps.scala
@@ -5,2 +4,0 @@ object Deps {
-  val a = "1"
-  val b = "2"
`

func TestParseDiff(t *testing.T) {
	changes, err := parseDiff([]byte(sampleDiff))
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, "build.sbt", changes[0].Path)
	assert.Equal(t, []int{3, 11, 12}, changes[0].ChangedLines)

	assert.Equal(t, "project/Deps.scala", changes[1].Path)
	assert.Equal(t, []int{5}, changes[1].ChangedLines)
}

func TestChangedFile_Touches(t *testing.T) {
	c := ChangedFile{Path: "x", ChangedLines: []int{3, 7}}
	assert.True(t, c.Touches(7))
	assert.False(t, c.Touches(4))
	assert.True(t, ChangedFile{Path: "y", Untracked: true}.Touches(100))
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
}

func TestGetChangedFiles(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	gitCmd(t, dir, "init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "build.sbt"), []byte("a\nb\nc\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clean.sbt"), []byte("x\n"), 0o644))
	gitCmd(t, dir, "add", ".")
	gitCmd(t, dir, "commit", "-q", "-m", "init")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "build.sbt"), []byte("a\nB\nc\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.scala"), []byte("object N\n"), 0o644))

	changes, err := GetChangedFiles(context.Background(), dir, "HEAD")
	require.NoError(t, err)
	require.Len(t, changes, 2)

	top, err := TopLevel(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(top, "build.sbt"), changes[0].Path)
	assert.Equal(t, []int{2}, changes[0].ChangedLines)
	assert.Equal(t, filepath.Join(top, "new.scala"), changes[1].Path)
	assert.True(t, changes[1].Untracked)
}

func TestGetChangedFiles_NotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))
	_, err := GetChangedFiles(context.Background(), dir, "HEAD")
	assert.Error(t, err)
}
