package userlog

import "fmt"

// EventKind is the numeric event code written at the start of every user log entry.
type EventKind int

const (
	Submit               EventKind = 0
	Execute              EventKind = 1
	ExecutableError      EventKind = 2
	Checkpointed         EventKind = 3
	Evicted              EventKind = 4
	Terminated           EventKind = 5
	ImageSize            EventKind = 6
	ShadowException      EventKind = 7
	Generic              EventKind = 8
	Aborted              EventKind = 9
	Suspended            EventKind = 10
	Unsuspended          EventKind = 11
	Held                 EventKind = 12
	Released             EventKind = 13
	NodeExecute          EventKind = 14
	NodeTerminated       EventKind = 15
	PostScriptTerminated EventKind = 16
	GlobusSubmit         EventKind = 17
	GlobusSubmitFailed   EventKind = 18
	GlobusResourceUp     EventKind = 19
	GlobusResourceDown   EventKind = 20
	RemoteError          EventKind = 21
	Disconnected         EventKind = 22
	Reconnected          EventKind = 23
	ReconnectFailed      EventKind = 24
	GridResourceUp       EventKind = 25
	GridResourceDown     EventKind = 26
	GridSubmit           EventKind = 27
	JobAdInformation     EventKind = 28
	JobStatusUnknown     EventKind = 29
	JobStatusKnown       EventKind = 30
	JobStageIn           EventKind = 31
	JobStageOut          EventKind = 32
	AttributeUpdate      EventKind = 33
	PreSkip              EventKind = 34
	ClusterSubmit        EventKind = 35
	ClusterRemove        EventKind = 36
	FactoryPaused        EventKind = 37
	FactoryResumed       EventKind = 38
	None                 EventKind = 39
	FileTransfer         EventKind = 40
	ReserveSpace         EventKind = 41
	ReleaseSpace         EventKind = 42
	FileComplete         EventKind = 43
	FileUsed             EventKind = 44
	FileRemoved          EventKind = 45
	DataflowJobSkipped   EventKind = 46
)

// Names as written in the MyType attribute of JSON formatted logs.
var kindNames = map[EventKind]string{
	Submit:               "SubmitEvent",
	Execute:              "ExecuteEvent",
	ExecutableError:      "ExecutableErrorEvent",
	Checkpointed:         "CheckpointedEvent",
	Evicted:              "JobEvictedEvent",
	Terminated:           "JobTerminatedEvent",
	ImageSize:            "JobImageSizeEvent",
	ShadowException:      "ShadowExceptionEvent",
	Generic:              "GenericEvent",
	Aborted:              "JobAbortedEvent",
	Suspended:            "JobSuspendedEvent",
	Unsuspended:          "JobUnsuspendedEvent",
	Held:                 "JobHeldEvent",
	Released:             "JobReleaseEvent",
	NodeExecute:          "NodeExecuteEvent",
	NodeTerminated:       "NodeTerminatedEvent",
	PostScriptTerminated: "PostScriptTerminatedEvent",
	GlobusSubmit:         "GlobusSubmitEvent",
	GlobusSubmitFailed:   "GlobusSubmitFailedEvent",
	GlobusResourceUp:     "GlobusResourceUpEvent",
	GlobusResourceDown:   "GlobusResourceDownEvent",
	RemoteError:          "RemoteErrorEvent",
	Disconnected:         "JobDisconnectedEvent",
	Reconnected:          "JobReconnectedEvent",
	ReconnectFailed:      "JobReconnectFailedEvent",
	GridResourceUp:       "GridResourceUpEvent",
	GridResourceDown:     "GridResourceDownEvent",
	GridSubmit:           "GridSubmitEvent",
	JobAdInformation:     "JobAdInformationEvent",
	JobStatusUnknown:     "JobStatusUnknownEvent",
	JobStatusKnown:       "JobStatusKnownEvent",
	JobStageIn:           "JobStageInEvent",
	JobStageOut:          "JobStageOutEvent",
	AttributeUpdate:      "AttributeUpdateEvent",
	PreSkip:              "PreSkipEvent",
	ClusterSubmit:        "ClusterSubmitEvent",
	ClusterRemove:        "ClusterRemoveEvent",
	FactoryPaused:        "FactoryPausedEvent",
	FactoryResumed:       "FactoryResumedEvent",
	None:                 "NoneEvent",
	FileTransfer:         "FileTransferEvent",
	ReserveSpace:         "ReserveSpaceEvent",
	ReleaseSpace:         "ReleaseSpaceEvent",
	FileComplete:         "FileCompleteEvent",
	FileUsed:             "FileUsedEvent",
	FileRemoved:          "FileRemovedEvent",
	DataflowJobSkipped:   "DataflowJobSkippedEvent",
}

var kindsByName map[string]EventKind

func init() {
	kindsByName = make(map[string]EventKind, len(kindNames))
	for kind, name := range kindNames {
		kindsByName[name] = kind
	}
}

func (k EventKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("UnknownEvent(%d)", int(k))
}

// Known reports whether the code is one the user log format defines.
func (k EventKind) Known() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseEventKind looks up a kind by its MyType name.
func ParseEventKind(name string) (EventKind, bool) {
	kind, ok := kindsByName[name]
	return kind, ok
}

// FileTransferType is the sub-type carried in the Type field of FileTransfer events.
type FileTransferType int64

const (
	TransferNone           FileTransferType = 0
	TransferInputQueued    FileTransferType = 1
	TransferInputStarted   FileTransferType = 2
	TransferInputFinished  FileTransferType = 3
	TransferOutputQueued   FileTransferType = 4
	TransferOutputStarted  FileTransferType = 5
	TransferOutputFinished FileTransferType = 6
)

func (t FileTransferType) String() string {
	switch t {
	case TransferInputQueued:
		return "input queued"
	case TransferInputStarted:
		return "input started"
	case TransferInputFinished:
		return "input finished"
	case TransferOutputQueued:
		return "output queued"
	case TransferOutputStarted:
		return "output started"
	case TransferOutputFinished:
		return "output finished"
	default:
		return "none"
	}
}
