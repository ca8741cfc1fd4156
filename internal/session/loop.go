package session

import (
	"log"
	"time"
)

// run is the frame loop. It alternates between an idle rate, where frames
// are only checked for motion, and an active rate, where frames also go
// through hand tracking and judgment.
//
// Loop logic:
// 1. Start at the idle rate (5 FPS)
// 2. On motion, switch to the active rate (15 FPS)
// 3. Track fingertips and run the judgment tick
// 4. After 2s without motion, drop back to idle
// 5. On a prolonged tracking outage, reset in-flight gestures
//
// Even while idle the scheduler clock still advances, so notes whose window
// elapses during a lull are swept on time.
func (s *Session) run(stopCh chan struct{}) {
	activeMode := false
	lastMotion := time.Now()
	lastTracked := time.Now()

	frameInterval := time.Second / time.Duration(IdleFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			frame, err := s.config.Camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			motionDetected, _ := s.motion.Detect(frame)

			if motionDetected {
				lastMotion = time.Now()
				if !activeMode {
					activeMode = true
					s.config.Camera.SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active mode")
				}
			} else if activeMode && time.Since(lastMotion) > IdleTimeoutMs*time.Millisecond {
				activeMode = false
				s.config.Camera.SetFPS(IdleFPS)
				frameInterval = time.Second / time.Duration(IdleFPS)
				ticker.Reset(frameInterval)
				log.Println("Switched to idle mode")
			}

			now := s.gameNow()

			if !activeMode {
				frame.Close()
				// Keep sweeping while idle; an empty frame carries no input
				// but time still passes for pending notes.
				s.Tick(now, nil)
				continue
			}

			points, err := s.config.Tracker.Track(frame, now)
			frame.Close()
			if err != nil {
				log.Printf("Error tracking hands: %v", err)
				if time.Since(lastTracked) > OutageResetMs*time.Millisecond {
					s.resetGestures()
				}
				continue
			}
			lastTracked = time.Now()

			s.Tick(now, points)
		}
	}
}
