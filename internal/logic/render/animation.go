package render

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/patrickwarner/bannerforge/internal/models"
)

const keyframesName = "enter"

// Timeline holds the start offset of every frame and the length of one full cycle.
// Offsets are whole milliseconds so sums of fractional seconds stay exact.
type Timeline struct {
	Delays []time.Duration
	Total  time.Duration
}

// ComputeTimeline returns when each frame starts. Frame i starts after the effective
// durations of frames 0..i-1; the total is the sum over all frames.
func ComputeTimeline(state models.AdState) Timeline {
	tl := Timeline{Delays: make([]time.Duration, len(state.Frames))}
	var elapsed time.Duration
	for i, f := range state.Frames {
		tl.Delays[i] = elapsed
		elapsed += seconds(f.EffectiveDuration(state.FrameDuration))
	}
	tl.Total = elapsed
	return tl
}

// seconds converts a duration in seconds to a Duration rounded to the millisecond.
// Negative values are clamped to zero.
func seconds(s float64) time.Duration {
	if s <= 0 || math.IsNaN(s) {
		return 0
	}
	return time.Duration(math.Round(s*1000)) * time.Millisecond
}

// cssSeconds formats d in seconds, e.g. "2.5s".
func cssSeconds(d time.Duration) string {
	return strconv.FormatFloat(float64(d.Milliseconds())/1000, 'f', -1, 64) + "s"
}

// enterKeyframes returns the keyframes shared by every animated frame.
func enterKeyframes(effect models.AnimationEffect) Keyframes {
	if effect == models.EffectNone {
		return Keyframes{Name: keyframesName, Steps: []Rule{
			{Selector: "0%", Decls: []Decl{decl("opacity", "1")}},
			{Selector: "100%", Decls: []Decl{decl("opacity", "1")}},
		}}
	}

	from := []Decl{decl("opacity", "0")}
	if t := startTransform(effect); t != "" {
		from = append(from, decl("transform", t))
	}
	return Keyframes{Name: keyframesName, Steps: []Rule{
		{Selector: "0%", Decls: from},
		{Selector: "100%", Decls: []Decl{
			decl("opacity", "1"),
			decl("transform", "translate(0,0) scale(1)"),
		}},
	}}
}

func startTransform(effect models.AnimationEffect) string {
	switch effect {
	case models.EffectSlideInBottom:
		return "translateY(100%)"
	case models.EffectSlideInTop:
		return "translateY(-100%)"
	case models.EffectSlideInLeft:
		return "translateX(-100%)"
	case models.EffectSlideInRight:
		return "translateX(100%)"
	case models.EffectZoomIn:
		return "scale(0.5)"
	case models.EffectZoomOut:
		return "scale(1.5)"
	}
	return ""
}

// frameRules stacks frames by index. The first frame is visible from the start and
// never animates; later frames enter at their timeline offset.
func frameRules(anim models.Animation, tl Timeline) []Rule {
	length, timing := seconds(anim.Duration), "ease-out"
	if anim.Effect == models.EffectNone {
		length, timing = 0, "steps(1)"
	}

	rules := make([]Rule, 0, len(tl.Delays))
	for i, delay := range tl.Delays {
		sel := fmt.Sprintf("#frame-%d", i)
		if i == 0 {
			rules = append(rules, Rule{Selector: sel, Decls: []Decl{
				decl("z-index", "10"),
				decl("opacity", "1"),
			}})
			continue
		}
		rules = append(rules, Rule{Selector: sel, Decls: []Decl{
			decl("z-index", strconv.Itoa(10+i)),
			decl("opacity", "0"),
			decl("animation", fmt.Sprintf("%s %s %s forwards", keyframesName, cssSeconds(length), timing)),
			decl("animation-delay", cssSeconds(delay)),
		}})
	}
	return rules
}

// replayScript restarts the animated frames once per cycle. Nothing is scheduled for
// an empty cycle.
func replayScript(total time.Duration) string {
	if total <= 0 {
		return ""
	}
	return fmt.Sprintf(`window.onload = function() {
  var totalDuration = %d;
  function resetAnimations() {
    var frames = document.querySelectorAll('.frame-animated');
    frames.forEach(function(el) {
      el.style.animation = 'none';
      el.offsetHeight;
      el.style.animation = '';
    });
  }
  setInterval(resetAnimations, totalDuration);
};`, total.Milliseconds())
}
