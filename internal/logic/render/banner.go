package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/patrickwarner/bannerforge/internal/models"
)

// AssetRewriteMap maps an encoded image to the relative path it is stored under in an
// archive. Images missing from the map are inlined as-is.
type AssetRewriteMap map[string]string

func (m AssetRewriteMap) src(encoded string) string {
	if p, ok := m[encoded]; ok {
		return p
	}
	return encoded
}

// RenderBanner produces the standalone HTML document for one variation at one size.
// The output is a pure function of its inputs: no clock, randomness or I/O.
func RenderBanner(state models.AdState, width, height int, rewrite AssetRewriteMap) string {
	return Document(state, width, height, rewrite).String()
}

// Page is a rendered banner before serialization.
type Page struct {
	Width, Height int
	Title         string
	ClickTag      string
	Font          FontChoice
	Styles        Stylesheet
	Timeline      Timeline
	body          *node
}

// Document assembles the page model for a variation at one size.
func Document(state models.AdState, width, height int, rewrite AssetRewriteMap) *Page {
	wide := IsWide(width, height)
	o := ResolveOverride(state, width, height)
	tl := ComputeTimeline(state)

	p := &Page{
		Width:    width,
		Height:   height,
		ClickTag: BuildClickTag(state.LandingPage, state.UTM),
		Font:     ResolveFont(state.Design),
		Timeline: tl,
	}
	if len(state.Frames) > 0 {
		p.Title = state.Frames[0].Copy.Headline
	}

	p.Styles.Add(baseRules(state.Design, p.Font, width, height, wide, o)...)
	p.Styles.AddKeyframes(enterKeyframes(state.Animation.Effect))
	for _, l := range usedLayouts(state.Frames) {
		p.Styles.Add(layoutRules(l, wide)...)
	}
	p.Styles.Add(frameRules(state.Animation, tl)...)

	container := el("div", a("id", "ad-container"), a("onclick", "window.open(window.clickTag)")).blockLayout()
	for i, f := range state.Frames {
		container.add(frameNode(i, f, rewrite))
	}
	p.body = container
	return p
}

// String serializes the page.
func (p *Page) String() string {
	head := el("head").blockLayout().add(
		voidEl("meta", a("charset", "UTF-8")),
		voidEl("meta", a("name", "ad.size"), a("content", "width="+strconv.Itoa(p.Width)+",height="+strconv.Itoa(p.Height))),
		el("title").add(textNode(p.Title)),
	)
	if p.Font.External() {
		head.add(voidEl("link", a("rel", "stylesheet"), a("href", p.Font.Href)))
	}
	head.add(
		el("script").add(rawNode(clickTagScript(p.ClickTag))),
		el("style").add(rawNode("\n"+p.Styles.String())),
	)
	if script := replayScript(p.Timeline.Total); script != "" {
		head.add(el("script").add(rawNode("\n" + script + "\n")))
	}

	body := el("body").blockLayout().add(p.body)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString(el("html").blockLayout().add(head, body).String())
	b.WriteByte('\n')
	return b.String()
}

func frameNode(i int, f models.Frame, rewrite AssetRewriteMap) *node {
	class := "frame layout-" + string(frameLayout(f))
	if i > 0 {
		class += " frame-animated"
	}
	frame := el("div", a("id", fmt.Sprintf("frame-%d", i)), a("class", class)).blockLayout()

	if f.Assets.Background != "" {
		frame.add(voidEl("img", a("src", rewrite.src(f.Assets.Background)), a("class", "bg-image"), a("alt", "")))
	}
	if f.Assets.Logo != "" {
		frame.add(voidEl("img", a("src", rewrite.src(f.Assets.Logo)), a("class", "logo"), a("alt", "Logo")))
	}

	content := el("div", a("class", "content-wrapper")).blockLayout()
	if f.Assets.Product != "" {
		content.add(voidEl("img", a("src", rewrite.src(f.Assets.Product)), a("class", "product-img"), a("alt", "Product")))
	}

	text := el("div", a("class", "text-group")).blockLayout()
	if f.Copy.Headline != "" {
		text.add(el("h1").add(textNode(f.Copy.Headline)))
	}
	if f.Copy.Subline != "" {
		text.add(el("p").add(textNode(f.Copy.Subline)))
	}
	if f.Copy.CTA != "" {
		text.add(el("div", a("class", "cta-wrapper")).add(
			el("span", a("class", "cta-btn")).add(textNode(f.Copy.CTA)),
		))
	}

	return frame.add(content.add(text))
}

func baseRules(d models.Design, font FontChoice, width, height int, wide bool, o ResolvedOverride) []Rule {
	ts := Typography(width, height, o.FontScale)
	bg := cssValue(d.BackgroundColor)
	if bg == "" {
		bg = "transparent"
	}

	return []Rule{
		{Selector: "body", Decls: []Decl{
			decl("margin", "0"),
			decl("padding", "0"),
			decl("overflow", "hidden"),
			decl("font-family", font.Family),
		}},
		{Selector: "#ad-container", Decls: []Decl{
			decl("width", strconv.Itoa(width)+"px"),
			decl("height", strconv.Itoa(height)+"px"),
			decl("position", "relative"),
			decl("border", "1px solid "+orValue(cssValue(d.BorderColor), "transparent")),
			decl("box-sizing", "border-box"),
			decl("background-color", bg),
			decl("color", orValue(cssValue(d.TextColor), "inherit")),
			decl("overflow", "hidden"),
			decl("cursor", "pointer"),
			decl("-webkit-font-smoothing", "antialiased"),
		}},
		{Selector: ".frame", Decls: []Decl{
			decl("position", "absolute"),
			decl("top", "0"),
			decl("left", "0"),
			decl("width", "100%"),
			decl("height", "100%"),
			decl("overflow", "hidden"),
			decl("background-color", bg),
			decl("pointer-events", "none"),
		}},
		{Selector: ".bg-image", Decls: []Decl{
			decl("position", "absolute"),
			decl("top", "0"),
			decl("left", "0"),
			decl("width", "100%"),
			decl("height", "100%"),
			decl("object-fit", "cover"),
			decl("z-index", "1"),
			decl("transform", imageTransform(o.BgScale, o.BgOffsetX, o.BgOffsetY)),
			decl("transform-origin", "center center"),
		}},
		{Selector: ".content-wrapper", Decls: []Decl{
			decl("position", "absolute"),
			decl("top", "0"),
			decl("left", "0"),
			decl("width", "100%"),
			decl("height", "100%"),
			decl("z-index", "10"),
			decl("display", "flex"),
			decl("box-sizing", "border-box"),
			decl("gap", "8px"),
			decl("padding", "12px"),
		}},
		logoRule(d.LogoPosition, wide, o),
		{Selector: ".product-img", Decls: []Decl{
			decl("transform", imageTransform(o.ProductScale, o.ProductOffsetX, o.ProductOffsetY)),
			decl("transform-origin", "center center"),
		}},
		{Selector: ".text-group", Decls: []Decl{
			decl("display", "flex"),
			decl("flex-direction", "column"),
			decl("width", "100%"),
			decl("transform", "translate("+px(o.TextOffsetX)+", "+px(o.TextOffsetY)+")"),
		}},
		{Selector: "h1", Decls: []Decl{
			decl("margin", "0 0 4px 0"),
			decl("font-size", strconv.Itoa(ts.Headline)+"px"),
			decl("line-height", "1.1"),
			decl("color", orValue(cssValue(d.PrimaryColor), "inherit")),
			decl("font-weight", "700"),
		}},
		{Selector: "p", Decls: []Decl{
			decl("margin", "0 0 8px 0"),
			decl("font-size", strconv.Itoa(ts.Subline)+"px"),
			decl("line-height", "1.25"),
			decl("opacity", "0.9"),
		}},
		{Selector: ".cta-wrapper", Decls: []Decl{decl("margin-top", "auto")}},
		{Selector: ".cta-btn", Decls: []Decl{
			decl("display", "inline-block"),
			decl("background-color", orValue(cssValue(d.AccentColor), "transparent")),
			decl("color", "#ffffff"),
			decl("padding", "6px 14px"),
			decl("text-decoration", "none"),
			decl("font-weight", "600"),
			decl("font-size", strconv.Itoa(ts.CTA)+"px"),
			decl("border-radius", "3px"),
		}},
	}
}

func orValue(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
