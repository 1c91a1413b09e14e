// Package sarif provides types and a parser for SARIF (Static Analysis
// Results Interchange Format) v2.1.0, the interchange format emitted by
// most SAST tools.
// Specification: https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-v2.1.0.html
package sarif

// Log represents the root SARIF log object.
type Log struct {
	Version string `json:"version"`
	Schema  string `json:"$schema,omitempty"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single run of an analysis tool.
type Run struct {
	Tool        Tool         `json:"tool"`
	Results     []Result     `json:"results,omitempty"`
	Invocations []Invocation `json:"invocations,omitempty"`
	Properties  Properties   `json:"properties,omitempty"`
}

// Tool describes the analysis tool that produced the results.
type Tool struct {
	Driver ToolComponent `json:"driver"`
}

// ToolComponent represents the driver component of an analysis tool.
type ToolComponent struct {
	Name           string                `json:"name"`
	Version        string                `json:"version,omitempty"`
	SemanticVersion string               `json:"semanticVersion,omitempty"`
	InformationURI string                `json:"informationUri,omitempty"`
	Rules          []ReportingDescriptor `json:"rules,omitempty"`
	Properties     Properties            `json:"properties,omitempty"`
}

// ReportingDescriptor describes a rule produced by a tool.
type ReportingDescriptor struct {
	ID               string                    `json:"id"`
	Name             string                    `json:"name,omitempty"`
	ShortDescription *MultiformatMessageString `json:"shortDescription,omitempty"`
	FullDescription  *MultiformatMessageString `json:"fullDescription,omitempty"`
	Help             *MultiformatMessageString `json:"help,omitempty"`
	HelpURI          string                    `json:"helpUri,omitempty"`
	Properties       Properties                `json:"properties,omitempty"`
}

// Result represents a single result from the analysis.
type Result struct {
	RuleID              string                        `json:"ruleId,omitempty"`
	RuleIndex           int                           `json:"ruleIndex,omitempty"`
	Rule                *ReportingDescriptorReference `json:"rule,omitempty"`
	Kind                Kind                          `json:"kind,omitempty"`
	Level               Level                         `json:"level,omitempty"`
	Message             Message                       `json:"message"`
	Locations           []Location                    `json:"locations,omitempty"`
	Fingerprints        map[string]string             `json:"fingerprints,omitempty"`
	PartialFingerprints map[string]string             `json:"partialFingerprints,omitempty"`
	Properties          Properties                    `json:"properties,omitempty"`
	Suppressions        []Suppression                 `json:"suppressions,omitempty"`
}

// ReportingDescriptorReference identifies a rule by ID or index.
type ReportingDescriptorReference struct {
	ID    string `json:"id,omitempty"`
	Index int    `json:"index,omitempty"`
}

// Location represents a location in an artifact.
type Location struct {
	PhysicalLocation *PhysicalLocation `json:"physicalLocation,omitempty"`
	Message          *Message          `json:"message,omitempty"`
}

// PhysicalLocation represents a physical location in an artifact.
type PhysicalLocation struct {
	ArtifactLocation *ArtifactLocation `json:"artifactLocation,omitempty"`
	Region           *Region           `json:"region,omitempty"`
}

// ArtifactLocation represents the location of an artifact.
type ArtifactLocation struct {
	URI       string `json:"uri,omitempty"`
	URIBaseID string `json:"uriBaseId,omitempty"`
	Index     int    `json:"index,omitempty"`
}

// Region represents a region within an artifact.
type Region struct {
	StartLine   int              `json:"startLine,omitempty"`
	StartColumn int              `json:"startColumn,omitempty"`
	EndLine     int              `json:"endLine,omitempty"`
	EndColumn   int              `json:"endColumn,omitempty"`
	Snippet     *ArtifactContent `json:"snippet,omitempty"`
}

// ArtifactContent represents the content of an artifact.
type ArtifactContent struct {
	Text string `json:"text,omitempty"`
}

// Message represents a message to the user.
type Message struct {
	Text     string `json:"text,omitempty"`
	Markdown string `json:"markdown,omitempty"`
	ID       string `json:"id,omitempty"`
}

// MultiformatMessageString represents a message in multiple formats.
type MultiformatMessageString struct {
	Text     string `json:"text"`
	Markdown string `json:"markdown,omitempty"`
}

// Suppression represents a suppression of a result.
type Suppression struct {
	Kind          string `json:"kind"`
	Status        string `json:"status,omitempty"`
	Justification string `json:"justification,omitempty"`
}

// Invocation describes a single invocation of an analysis tool.
type Invocation struct {
	CommandLine         string `json:"commandLine,omitempty"`
	StartTimeUTC        string `json:"startTimeUtc,omitempty"`
	EndTimeUTC          string `json:"endTimeUtc,omitempty"`
	ExecutionSuccessful bool   `json:"executionSuccessful"`
	ExitCode            int    `json:"exitCode,omitempty"`
}

// Properties is a property bag for custom properties.
type Properties map[string]any

// Level represents the severity level of a result.
type Level string

const (
	LevelNone    Level = "none"
	LevelNote    Level = "note"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// IsValid checks if the level is valid.
func (l Level) IsValid() bool {
	switch l {
	case LevelNone, LevelNote, LevelWarning, LevelError, "":
		return true
	default:
		return false
	}
}

// Kind represents the kind of a result.
type Kind string

const (
	KindNotApplicable Kind = "notApplicable"
	KindPass          Kind = "pass"
	KindFail          Kind = "fail"
	KindReview        Kind = "review"
	KindOpen          Kind = "open"
	KindInformational Kind = "informational"
)

// IsValid checks if the kind is valid.
func (k Kind) IsValid() bool {
	switch k {
	case KindNotApplicable, KindPass, KindFail, KindReview, KindOpen, KindInformational, "":
		return true
	default:
		return false
	}
}
