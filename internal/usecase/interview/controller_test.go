package interview

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/futig/interview-emotion/internal/entity"
	"github.com/futig/interview-emotion/internal/integration/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMountDeniedRaisesSingleAlert(t *testing.T) {
	h := newHarness(t)
	h.capture.err = entity.ErrCaptureDenied

	err := h.ctrl.Mount(context.Background())
	assert.ErrorIs(t, err, entity.ErrCaptureDenied)
	err = h.ctrl.Mount(context.Background())
	assert.ErrorIs(t, err, entity.ErrCaptureDenied)

	alerts := h.events.ofType(entity.EventAlert)
	require.Len(t, alerts, 1)
	assert.Equal(t, alertCaptureDenied, alerts[0].Data.(*entity.AlertData).Code)

	assert.ErrorIs(t, h.ctrl.Start(context.Background()), entity.ErrNoCaptureStream)
	_, err = h.ctrl.ToggleCam()
	assert.ErrorIs(t, err, entity.ErrNoCaptureStream)

	snap := h.ctrl.Snapshot()
	assert.False(t, snap.State.CaptureReady)
	assert.False(t, snap.Controls.StartEnabled)
	assert.NoError(t, h.ctrl.SelectPage(1))
}

func TestCountdownThenRecording(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	h.startAndWaitRecording(t)

	countdown := h.events.ofType(entity.EventCountdown)
	require.Len(t, countdown, 4)
	var values []int
	var labels []string
	for _, e := range countdown {
		d := e.Data.(*entity.CountdownData)
		values = append(values, d.Value)
		labels = append(labels, d.Label)
	}
	assert.Equal(t, []int{3, 2, 1, 0}, values)
	assert.Equal(t, []string{"3", "2", "1", "Start!"}, labels)

	require.Len(t, h.events.ofType(entity.EventRecordingStarted), 1)

	snap := h.ctrl.Snapshot()
	assert.Nil(t, snap.State.Countdown)
	assert.True(t, snap.Recording)
	assert.False(t, snap.Controls.StartEnabled)
	assert.True(t, snap.Controls.EndEnabled)

	assert.Equal(t, "en-US", h.transcriber.lastOpts.Language)
	assert.True(t, h.transcriber.lastOpts.InterimResults)
	assert.True(t, h.transcriber.lastOpts.Continuous)
}

func TestStartRejectedUnlessIdle(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	require.NoError(t, h.ctrl.Start(context.Background()))
	assert.ErrorIs(t, h.ctrl.Start(context.Background()), entity.ErrAlreadyRecording)
	assert.ErrorIs(t, h.ctrl.Stop(context.Background()), entity.ErrNotRecording)

	h.waitPhase(t, entity.PhaseRecording)
	assert.ErrorIs(t, h.ctrl.Start(context.Background()), entity.ErrAlreadyRecording)
	assert.Len(t, h.events.ofType(entity.EventRecordingStarted), 1)
}

func TestStopWhenIdleIsRejected(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	assert.ErrorIs(t, h.ctrl.Stop(context.Background()), entity.ErrNotRecording)
	assert.Empty(t, h.predictor.Requests())
}

func TestFullCycleUploadsAndAdvances(t *testing.T) {
	h := newHarness(t)
	h.mount(t)
	h.startAndWaitRecording(t)

	stream := h.capture.Stream()
	stream.Publish(media.FeedCombined, []byte("v1"))
	stream.Publish(media.FeedAudio, []byte("a1"))
	stream.Publish(media.FeedCombined, []byte("v2"))
	stream.Publish(media.FeedAudio, []byte("a2"))

	h.transcriber.emit("hello world")
	h.waitMessages(t, 0, 1)

	h.transcriber.emit("  more text ")
	require.NoError(t, h.ctrl.Stop(context.Background()))

	reqs := h.predictor.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, "video_q1.webm", req.VideoFilename)
	assert.Equal(t, "audio_q1.webm", req.AudioFilename)
	assert.Equal(t, []byte("v1v2"), req.Video)
	assert.Equal(t, []byte("a1a2"), req.Audio)
	assert.Equal(t, entity.PredictMetadata{
		QuestionIndex: 0,
		Question:      "Introduce yourself.",
		AnswerText:    "hello world more text",
	}, req.Metadata)

	snap := h.ctrl.Snapshot()
	q0 := snap.Questions[0]
	assert.Equal(t, []entity.Message{
		{Speaker: entity.SpeakerYou, Text: "hello world"},
		{Speaker: entity.SpeakerYou, Text: "more text"},
		{Speaker: entity.SpeakerSystem, Text: "Q1 finished"},
	}, q0.Messages)
	assert.Equal(t, happyResponse.Probabilities, q0.Emotions)
	require.NotNil(t, q0.AnswerText)
	assert.Equal(t, "hello world more text", *q0.AnswerText)
	assert.Nil(t, q0.UploadError)

	assert.Equal(t, entity.PhaseIdle, snap.State.Phase)
	assert.Equal(t, 1, snap.State.QIndex)
	assert.Equal(t, 1, snap.State.SelectedPage)
	assert.False(t, snap.Recording)
	assert.True(t, snap.Controls.StartEnabled)
	assert.Equal(t, 1, h.transcriber.Stops())

	finished := h.events.ofType(entity.EventQuestionFinished)
	require.Len(t, finished, 1)
	data := finished[0].Data.(*entity.QuestionFinishedData)
	require.NotNil(t, data.NextIndex)
	assert.Equal(t, 1, *data.NextIndex)
}

func TestRecordingStaysTrueWhileUploading(t *testing.T) {
	h := newHarness(t)
	h.predictor.block = make(chan struct{})
	h.mount(t)
	h.startAndWaitRecording(t)

	done := make(chan error, 1)
	go func() { done <- h.ctrl.Stop(context.Background()) }()

	assert.Eventually(t, func() bool { return len(h.predictor.Requests()) == 1 }, time.Second, 2*time.Millisecond)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, entity.PhaseFinalizing, snap.State.Phase)
	assert.True(t, snap.Recording)
	assert.False(t, snap.Controls.StartEnabled)
	assert.False(t, snap.Controls.EndEnabled)
	assert.ErrorIs(t, h.ctrl.Start(context.Background()), entity.ErrAlreadyRecording)
	assert.ErrorIs(t, h.ctrl.Stop(context.Background()), entity.ErrNotRecording)

	close(h.predictor.block)
	require.NoError(t, <-done)
	assert.False(t, h.ctrl.Snapshot().Recording)
}

func TestUploadFailureStillAdvances(t *testing.T) {
	h := newHarness(t)
	h.predictor.resp = nil
	h.predictor.err = errors.New("connection refused")
	h.mount(t)
	h.startAndWaitRecording(t)

	h.transcriber.emit("an answer")
	require.NoError(t, h.ctrl.Stop(context.Background()))

	snap := h.ctrl.Snapshot()
	q0 := snap.Questions[0]
	assert.Nil(t, q0.Emotions)
	require.NotNil(t, q0.UploadError)
	assert.Contains(t, *q0.UploadError, "connection refused")
	assert.Equal(t, []entity.Message{{Speaker: entity.SpeakerYou, Text: "an answer"}}, q0.Messages)
	assert.Equal(t, 1, snap.State.QIndex)
	assert.Equal(t, entity.PhaseIdle, snap.State.Phase)
	assert.Len(t, h.predictor.Requests(), 1)

	// the failure is kept for diagnostics but never serialized to the user
	out, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "connection refused")
	finished := h.events.ofType(entity.EventQuestionFinished)
	require.Len(t, finished, 1)
	out, err = json.Marshal(finished[0])
	require.NoError(t, err)
	assert.NotContains(t, string(out), "connection refused")

	errs := h.events.ofType(entity.EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, 0, errs[0].Data.(*entity.ErrorData).Details["question_index"])
}

func TestLastQuestionFinishesSession(t *testing.T) {
	h := newHarness(t, "Only question")
	h.mount(t)
	h.startAndWaitRecording(t)

	require.NoError(t, h.ctrl.Stop(context.Background()))

	snap := h.ctrl.Snapshot()
	assert.True(t, snap.Finished)
	assert.Equal(t, entity.PhaseDone, snap.State.Phase)
	assert.Equal(t, 0, snap.State.QIndex)
	assert.False(t, snap.Controls.StartEnabled)
	assert.ErrorIs(t, h.ctrl.Start(context.Background()), entity.ErrSessionFinished)

	require.Len(t, h.events.ofType(entity.EventSessionFinished), 1)
	finished := h.events.ofType(entity.EventQuestionFinished)
	require.Len(t, finished, 1)
	assert.Nil(t, finished[0].Data.(*entity.QuestionFinishedData).NextIndex)

	// an empty answer is still uploaded
	reqs := h.predictor.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "", reqs[0].Metadata.AnswerText)
	assert.NotNil(t, reqs[0].Video)
	assert.NotNil(t, reqs[0].Audio)
}

func TestDebouncedCommitDeduplicates(t *testing.T) {
	h := newHarness(t)
	h.mount(t)
	h.startAndWaitRecording(t)

	h.transcriber.emit("same words")
	h.waitMessages(t, 0, 1)
	h.transcriber.emit("same words")
	time.Sleep(3 * testOptions().SilenceWindow)
	h.transcriber.emit("   ")
	time.Sleep(3 * testOptions().SilenceWindow)

	msgs := h.ctrl.Snapshot().Questions[0].Messages
	assert.Equal(t, []entity.Message{{Speaker: entity.SpeakerYou, Text: "same words"}}, msgs)
	assert.Len(t, h.events.ofType(entity.EventTranscript), 3)
}

func TestFragmentResetsSilenceWindow(t *testing.T) {
	h := newHarness(t)
	h.mount(t)
	h.startAndWaitRecording(t)

	h.transcriber.emit("tell")
	time.Sleep(5 * time.Millisecond)
	h.transcriber.emit("tell me")
	time.Sleep(5 * time.Millisecond)
	h.transcriber.emit("tell me more")
	h.waitMessages(t, 0, 1)
	time.Sleep(2 * testOptions().SilenceWindow)

	msgs := h.ctrl.Snapshot().Questions[0].Messages
	assert.Equal(t, []entity.Message{{Speaker: entity.SpeakerYou, Text: "tell me more"}}, msgs)
}

func TestStopFlushesPendingFragmentOnce(t *testing.T) {
	h := newHarness(t)
	h.mount(t)
	h.startAndWaitRecording(t)

	h.transcriber.emit("final thought")
	require.NoError(t, h.ctrl.Stop(context.Background()))
	time.Sleep(2 * testOptions().SilenceWindow)

	msgs := h.ctrl.Snapshot().Questions[0].Messages
	assert.Equal(t, []entity.Message{
		{Speaker: entity.SpeakerYou, Text: "final thought"},
		{Speaker: entity.SpeakerSystem, Text: "Q1 finished"},
	}, msgs)
}

func TestFragmentsAfterStopAreIgnored(t *testing.T) {
	h := newHarness(t)
	h.mount(t)
	h.startAndWaitRecording(t)

	onResult := h.transcriber.onResult
	require.NoError(t, h.ctrl.Stop(context.Background()))

	onResult(media.Fragment{Text: "late words"})
	time.Sleep(2 * testOptions().SilenceWindow)

	for _, q := range h.ctrl.Snapshot().Questions {
		for _, m := range q.Messages {
			assert.NotEqual(t, "late words", m.Text)
		}
	}
}

func TestTranscriptionUnsupportedKeepsRecording(t *testing.T) {
	h := newHarness(t)
	h.transcriber.err = entity.ErrTranscriptionUnsupported
	h.mount(t)
	h.startAndWaitRecording(t)

	alerts := h.events.ofType(entity.EventAlert)
	require.Len(t, alerts, 1)
	assert.Equal(t, alertSpeechUnsupported, alerts[0].Data.(*entity.AlertData).Code)

	h.capture.Stream().Publish(media.FeedAudio, []byte("a"))
	require.NoError(t, h.ctrl.Stop(context.Background()))

	reqs := h.predictor.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, []byte("a"), reqs[0].Audio)
	assert.Equal(t, 1, h.ctrl.Snapshot().State.QIndex)
}

func TestElapsedTimerTicks(t *testing.T) {
	h := newHarness(t)
	h.mount(t)
	h.startAndWaitRecording(t)

	assert.Eventually(t, func() bool { return h.ctrl.Snapshot().State.Elapsed >= 2 }, time.Second, 2*time.Millisecond)

	timers := h.events.ofType(entity.EventTimer)
	require.NotEmpty(t, timers)
	first := timers[0].Data.(*entity.TimerData)
	assert.Equal(t, 1, first.Elapsed)
	assert.Equal(t, "0:01", first.Display)

	require.NoError(t, h.ctrl.Stop(context.Background()))
	elapsed := h.ctrl.Snapshot().State.Elapsed
	time.Sleep(5 * testOptions().ElapsedTick)
	assert.Equal(t, elapsed, h.ctrl.Snapshot().State.Elapsed)
}

func TestNextCycleStartsFromZero(t *testing.T) {
	h := newHarness(t)
	h.mount(t)
	h.startAndWaitRecording(t)
	assert.Eventually(t, func() bool { return h.ctrl.Snapshot().State.Elapsed >= 1 }, time.Second, 2*time.Millisecond)
	require.NoError(t, h.ctrl.Stop(context.Background()))

	h.startAndWaitRecording(t)
	snap := h.ctrl.Snapshot()
	assert.Equal(t, 1, snap.State.QIndex)
	assert.Less(t, snap.State.Elapsed, 5)
	assert.Empty(t, snap.Questions[1].Messages)

	h.transcriber.emit("second answer")
	require.NoError(t, h.ctrl.Stop(context.Background()))

	reqs := h.predictor.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "video_q2.webm", reqs[1].VideoFilename)
	assert.Equal(t, "second answer", reqs[1].Metadata.AnswerText)
	assert.True(t, h.ctrl.Snapshot().Finished)
}

func TestTogglesAreIndependent(t *testing.T) {
	h := newHarness(t)
	h.mount(t)
	stream := h.capture.Stream()

	camOn, err := h.ctrl.ToggleCam()
	require.NoError(t, err)
	assert.False(t, camOn)
	assert.False(t, stream.VideoTracks()[0].Enabled())
	assert.True(t, stream.AudioTracks()[0].Enabled())

	snap := h.ctrl.Snapshot()
	assert.Equal(t, "Camera On", snap.Controls.CameraLabel)
	assert.Equal(t, "Mic Mute", snap.Controls.MicLabel)

	micOn, err := h.ctrl.ToggleMic()
	require.NoError(t, err)
	assert.False(t, micOn)
	assert.Equal(t, "Mic Unmute", h.ctrl.Snapshot().Controls.MicLabel)

	camOn, err = h.ctrl.ToggleCam()
	require.NoError(t, err)
	assert.True(t, camOn)
	assert.False(t, stream.AudioTracks()[0].Enabled())

	assert.Equal(t, 1, h.capture.acquired)
	assert.Len(t, h.events.ofType(entity.EventTrackChanged), 3)
}

func TestSelectPageIsIndependentOfActiveQuestion(t *testing.T) {
	h := newHarness(t, "a", "b", "c")
	h.mount(t)
	h.startAndWaitRecording(t)

	require.NoError(t, h.ctrl.SelectPage(2))
	snap := h.ctrl.Snapshot()
	assert.Equal(t, 2, snap.State.SelectedPage)
	assert.Equal(t, 0, snap.State.QIndex)
	assert.Equal(t, entity.PhaseRecording, snap.State.Phase)

	assert.ErrorIs(t, h.ctrl.SelectPage(3), entity.ErrInvalidPage)
	assert.ErrorIs(t, h.ctrl.SelectPage(-1), entity.ErrInvalidPage)

	require.NoError(t, h.ctrl.Stop(context.Background()))
	assert.Equal(t, 1, h.ctrl.Snapshot().State.SelectedPage)
}

func TestCloseDuringRecordingReleasesEverything(t *testing.T) {
	h := newHarness(t)
	h.mount(t)
	h.startAndWaitRecording(t)
	stream := h.capture.Stream()

	h.ctrl.Close()
	h.ctrl.Close()

	assert.False(t, stream.Active())
	for _, track := range stream.Tracks() {
		assert.True(t, track.Stopped())
	}
	assert.Equal(t, 1, h.transcriber.Stops())

	count := len(h.events.all())
	time.Sleep(5 * testOptions().ElapsedTick)
	assert.Len(t, h.events.all(), count)

	assert.ErrorIs(t, h.ctrl.Start(context.Background()), entity.ErrSessionClosed)
	assert.ErrorIs(t, h.ctrl.Stop(context.Background()), entity.ErrSessionClosed)
	assert.ErrorIs(t, h.ctrl.Mount(context.Background()), entity.ErrSessionClosed)
}

func TestCloseDuringCountdown(t *testing.T) {
	h := newHarness(t)
	h.mount(t)
	require.NoError(t, h.ctrl.Start(context.Background()))

	h.ctrl.Close()
	time.Sleep(10 * testOptions().CountdownTick)

	assert.Empty(t, h.events.ofType(entity.EventRecordingStarted))
	assert.Zero(t, h.transcriber.starts)
	assert.Nil(t, h.ctrl.Snapshot().State.Countdown)
}

func TestCloseCancelsInFlightUpload(t *testing.T) {
	h := newHarness(t)
	h.predictor.block = make(chan struct{})
	h.mount(t)
	h.startAndWaitRecording(t)

	done := make(chan error, 1)
	go func() { done <- h.ctrl.Stop(context.Background()) }()
	assert.Eventually(t, func() bool { return len(h.predictor.Requests()) == 1 }, time.Second, 2*time.Millisecond)

	h.ctrl.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, entity.ErrSessionClosed)
	case <-time.After(time.Second):
		t.Fatal("upload was not cancelled")
	}

	snap := h.ctrl.Snapshot()
	assert.Nil(t, snap.Questions[0].Emotions)
	assert.Nil(t, snap.Questions[0].UploadError)
	assert.Empty(t, h.events.ofType(entity.EventQuestionFinished))
}

func TestSnapshotIsACopy(t *testing.T) {
	h := newHarness(t)
	h.mount(t)
	h.startAndWaitRecording(t)
	h.transcriber.emit("original")
	require.NoError(t, h.ctrl.Stop(context.Background()))

	snap := h.ctrl.Snapshot()
	snap.Questions[0].Messages[0].Text = "changed"
	snap.Questions[0].Emotions[0].Probability = 1

	fresh := h.ctrl.Snapshot()
	assert.Equal(t, "original", fresh.Questions[0].Messages[0].Text)
	assert.Equal(t, 0.55, fresh.Questions[0].Emotions[0].Probability)

	page, err := h.ctrl.Page(0)
	require.NoError(t, err)
	assert.Equal(t, "original", page.Messages[0].Text)
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0:00", formatElapsed(0))
	assert.Equal(t, "0:09", formatElapsed(9))
	assert.Equal(t, "1:05", formatElapsed(65))
	assert.Equal(t, "10:00", formatElapsed(600))
}

func TestStopAndCloseWhileMediaFlows(t *testing.T) {
	h := newHarness(t)
	h.mount(t)
	h.startAndWaitRecording(t)

	stream := h.capture.Stream()
	stream.Publish(media.FeedAudio, []byte("first"))
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				stream.Publish(media.FeedCombined, []byte("v"))
				stream.Publish(media.FeedAudio, []byte("a"))
			}
		}
	}()

	stopped := make(chan error, 1)
	go func() { stopped <- h.ctrl.Stop(context.Background()) }()
	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return while chunks were published")
	}
	assert.Equal(t, 1, h.ctrl.Snapshot().State.QIndex)
	require.Len(t, h.predictor.Requests(), 1)
	assert.NotEmpty(t, h.predictor.Requests()[0].Audio)

	h.startAndWaitRecording(t)
	closed := make(chan struct{})
	go func() {
		h.ctrl.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return while chunks were published")
	}
}
