package descriptor

// Well-known descriptor keys.
const (
	// KeyBuilderVersion is the cgt version the project is meant to be built with.
	KeyBuilderVersion = "builder.version"
	// KeyBuilderRequireVersion makes a builder.version mismatch fatal.
	KeyBuilderRequireVersion = "builder.require_version"

	// KeyProjectName is the name of the project.
	KeyProjectName = "project.name"
	// KeySourceDir is the directory holding the script sources.
	KeySourceDir = "project.src.dir"
	// KeySourceOut is the bundle file name without extension.
	KeySourceOut = "project.src.out"
	// KeySourceMain is the main script inside the source directory.
	KeySourceMain = "project.src.main"
	// KeySourceArgs is the argument string handed to the entry point at runtime.
	KeySourceArgs = "project.src.args"
	// KeyOutputDir is the directory the bundle is written to.
	KeyOutputDir = "project.out.dir"

	// KeyResourcesEnabled toggles packing of external resources.
	KeyResourcesEnabled = "project.externalres.enabled"
	// KeyResourcesDir is the directory holding external resources.
	KeyResourcesDir = "project.externalres.dir"
	// KeyResourcesOut is the directory the resource archive is written to.
	KeyResourcesOut = "project.externalres.out"

	// KeyPostBuildEnabled toggles the post-build command.
	KeyPostBuildEnabled = "project.postbuild.enabled"
	// KeyPostBuildCommand is the command line run after a successful build.
	KeyPostBuildCommand = "project.postbuild.command"
	// KeyPostBuildTimeout is the post-build command timeout in seconds.
	KeyPostBuildTimeout = "project.postbuild.timeout"
)

// RequiredKeys lists the keys every buildable descriptor must define, in the
// order the builder checks them.
var RequiredKeys = []string{
	KeyProjectName,
	KeySourceDir,
	KeySourceOut,
	KeyOutputDir,
	KeySourceMain,
}
