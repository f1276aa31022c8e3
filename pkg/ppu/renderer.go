package ppu

// Stencil values written alongside each frame buffer pixel, used to resolve
// background/sprite precedence without relying on alpha as an opacity flag.
const (
	StencilNone        = 0 // backdrop color, nothing opaque drawn here
	StencilBackSprite  = 1 // sprite drawn behind an opaque background pixel
	StencilBackground  = 2 // opaque background tile pixel
	StencilFrontSprite = 3 // sprite drawn in front of the background
)

// TileData represents an 8x8 pixel tile
type TileData struct {
	LowByte  uint8 // Low bit plane
	HighByte uint8 // High bit plane
}

// SpriteData represents sprite attribute data
type SpriteData struct {
	Y          uint8 // Y position - 1
	TileIndex  uint8 // Tile index
	Attributes uint8 // Attributes (palette, priority, flip)
	X          uint8 // X position
}

// BackgroundTile represents a background tile with attributes
type BackgroundTile struct {
	TileIndex  uint8 // Tile index from nametable
	Attributes uint8 // Attribute data (palette selection)
	PatternLo  uint8 // Low bit plane
	PatternHi  uint8 // High bit plane
}

// SpriteInfo represents a sprite with its OAM index
type SpriteInfo struct {
	SpriteData
	OAMIndex int // Original index in OAM (for sprite 0 detection)
}

// Sprite attribute flags
const (
	SpriteFlipHorizontal = 0x40
	SpriteFlipVertical   = 0x80
	SpritePriority       = 0x20 // 0=front of background, 1=behind background
	SpritePaletteMask    = 0x03 // Palette selection (bits 0-1)
)

// fetchBackgroundTileWithScroll fetches tile data for background rendering with proper scroll handling
func (p *PPU) fetchBackgroundTileWithScroll(tileX, tileY, pixelY int) BackgroundTile {
	// Use PPU v register to determine scroll offset
	coarseX := int(p.v & 0x1F)        // Bits 0-4: coarse X scroll
	coarseY := int((p.v >> 5) & 0x1F) // Bits 5-9: coarse Y scroll

	// Calculate scrolled tile coordinates
	scrolledTileX := coarseX + tileX

	// For Y: fine Y scroll can affect tile selection when it wraps
	fineY := int((p.v >> 12) & 0x07) // Bits 12-14: fine Y scroll
	effectiveTileY := tileY
	if (pixelY + fineY) >= 8 {
		effectiveTileY += 1 // Fine Y overflow causes tile selection change
	}
	scrolledTileY := coarseY + effectiveTileY

	// Determine nametable selection
	nameTableX := 0
	nameTableY := 0

	// Handle horizontal nametable switching
	if scrolledTileX >= 32 {
		nameTableX = 1
		scrolledTileX -= 32
	}

	// Handle vertical nametable switching
	if scrolledTileY >= 30 {
		nameTableY = 1
		scrolledTileY -= 30
	}

	// Get base nametable from v register
	baseNTX := int(p.v>>10) & 1 // Bit 10: nametable X
	baseNTY := int(p.v>>11) & 1 // Bit 11: nametable Y

	// Calculate final nametable
	finalNTX := (baseNTX + nameTableX) % 2
	finalNTY := (baseNTY + nameTableY) % 2

	// Calculate final nametable address
	nameTableIndex := finalNTY*2 + finalNTX
	nameTableBase := uint16(0x2000) + uint16(nameTableIndex)*0x400
	nameTableAddr := nameTableBase + uint16(scrolledTileY*32+scrolledTileX)

	// Fetch tile index
	tileIndex := p.readVRAM(nameTableAddr)

	// Fetch attribute data
	attrAddr := nameTableBase + 0x3C0 + uint16((scrolledTileY/4)*8+(scrolledTileX/4))
	attrByte := p.readVRAM(attrAddr)

	// Extract 2-bit palette selection from attribute byte
	attrShift := ((scrolledTileY & 2) * 2) + ((scrolledTileX&2)/2)*2
	attributes := (attrByte >> attrShift) & 0x03

	// Fetch pattern table data
	patternTableBase := uint16(0x0000)
	if p.PPUCTRL&PPUCTRLBGTable != 0 {
		patternTableBase = 0x1000
	}

	tileAddr := patternTableBase + uint16(tileIndex)*16

	// Apply fine Y scroll from v register
	fineY = int((p.v >> 12) & 0x07) // Bits 12-14: fine Y scroll
	adjustedPixelY := (pixelY + fineY) % 8

	tileRow := uint16(adjustedPixelY)
	patternLoAddr := tileAddr + tileRow
	patternHiAddr := tileAddr + tileRow + 8

	patternLo := p.readVRAM(patternLoAddr)
	patternHi := p.readVRAM(patternHiAddr)

	return BackgroundTile{
		TileIndex:  tileIndex,
		Attributes: attributes,
		PatternLo:  patternLo,
		PatternHi:  patternHi,
	}
}

// getPixelColor extracts pixel color from tile pattern data
func getPixelColor(patternLo, patternHi uint8, pixelX int) uint8 {
	// Extract bit for this pixel (MSB = leftmost pixel)
	bitPos := 7 - pixelX

	lowBit := (patternLo >> bitPos) & 1
	highBit := (patternHi >> bitPos) & 1

	colorIndex := (highBit << 1) | lowBit

	return colorIndex
}

// isBackgroundPixelOpaque checks if background pixel is opaque (non-zero color index)
func (p *PPU) isBackgroundPixelOpaque(x, y int) bool {
	// Check if background rendering is enabled
	if p.PPUMASK&PPUMASKBGShow == 0 {
		return false
	}

	// Check if we should hide background in leftmost 8 pixels
	if x < 8 && p.PPUMASK&PPUMASKBGLeft == 0 {
		return false
	}

	// Apply fine X scroll for smooth scrolling
	fineX := int(p.x)
	adjustedX := x + fineX

	tileX := adjustedX / 8
	pixelX := adjustedX % 8

	// For Y: v register contains both coarse and fine Y scroll
	// Pass screen coordinates to fetchBackgroundTileWithScroll
	tileY := y / 8
	pixelY := y % 8

	// Fetch tile data - Y scroll handled entirely within v register
	tile := p.fetchBackgroundTileWithScroll(tileX, tileY, pixelY)

	// Get pixel color index from pattern data
	colorIndex := getPixelColor(tile.PatternLo, tile.PatternHi, pixelX)

	// Background is opaque if color index is non-zero
	return colorIndex != 0
}

// renderBackgroundPixelCached renders a single background pixel with tile caching
func (p *PPU) renderBackgroundPixelCached(x, y int) uint32 {
	// Check if background rendering is enabled
	if p.PPUMASK&PPUMASKBGShow == 0 {
		return p.PaletteManager.GetBackgroundColor(0, 0)
	}

	// Check if we should hide background in leftmost 8 pixels
	if x < 8 && p.PPUMASK&PPUMASKBGLeft == 0 {
		return p.PaletteManager.GetBackgroundColor(0, 0)
	}

	// Apply fine X scroll for smooth scrolling
	fineX := int(p.x)
	adjustedX := x + fineX

	tileX := adjustedX / 8
	pixelX := adjustedX % 8
	tileY := y / 8
	pixelY := y % 8

	// Check cache validity
	if !p.bgCache.valid || p.bgCache.tileX != tileX || p.bgCache.tileY != tileY {
		// Cache miss - fetch new tile
		tile := p.fetchBackgroundTileWithScroll(tileX, tileY, pixelY)
		p.bgCache = tileCache{
			valid:      true,
			tileIndex:  tile.TileIndex,
			attributes: tile.Attributes,
			patternLo:  tile.PatternLo,
			patternHi:  tile.PatternHi,
			tileX:      tileX,
			tileY:      tileY,
		}
	}

	// Get pixel color from cached pattern data
	colorIndex := getPixelColor(p.bgCache.patternLo, p.bgCache.patternHi, pixelX)

	// Get final color from palette
	return p.PaletteManager.GetBackgroundColor(p.bgCache.attributes, colorIndex)
}

// maxSpritesPerScanline is the hardware limit on sprites evaluated for a
// given scanline; the 8th match sets the overflow flag instead of rendering.
const maxSpritesPerScanline = 7

// fetchSpriteData fetches data for sprites on the current scanline. Sprites
// are always 8x8; PPUCTRL's sprite-size bit is stored but not honored.
func (p *PPU) fetchSpriteData(scanline int) []SpriteInfo {
	var sprites []SpriteInfo
	const spriteHeight = 8

	for i := 0; i < 64; i++ {
		spriteY := int(p.OAM[i*4])

		if scanline >= spriteY && scanline < spriteY+spriteHeight {
			if len(sprites) >= maxSpritesPerScanline {
				p.PPUSTATUS |= 0x20 // sprite overflow
				break
			}
			sprite := SpriteInfo{
				SpriteData: SpriteData{
					Y:          p.OAM[i*4],
					TileIndex:  p.OAM[i*4+1],
					Attributes: p.OAM[i*4+2],
					X:          p.OAM[i*4+3],
				},
				OAMIndex: i,
			}
			sprites = append(sprites, sprite)
		}
	}

	return sprites
}

// renderSpritePixel evaluates sprites (highest priority, i.e. lowest OAM
// index, first) at the given screen position. It returns the resolved color,
// whether a sprite pixel was found, whether that sprite should draw behind
// the background, and whether the matched sprite is OAM entry 0.
func (p *PPU) renderSpritePixel(x, y int, sprites []SpriteInfo) (color uint32, opaque bool, behind bool, isSprite0 bool) {
	if p.PPUMASK&PPUMASKSpriteShow == 0 {
		return 0, false, false, false
	}
	if x < 8 && p.PPUMASK&PPUMASKSpriteLeft == 0 {
		return 0, false, false, false
	}

	const spriteHeight = 8

	for _, sprite := range sprites {
		spriteX := int(sprite.X)
		spriteY := int(sprite.Y)

		if x < spriteX || x >= spriteX+8 || y < spriteY || y >= spriteY+spriteHeight {
			continue
		}

		pixelX := x - spriteX
		pixelY := y - spriteY

		if sprite.Attributes&SpriteFlipHorizontal != 0 {
			pixelX = 7 - pixelX
		}
		if sprite.Attributes&SpriteFlipVertical != 0 {
			pixelY = (spriteHeight - 1) - pixelY
		}

		patternTableBase := uint16(0x0000)
		if p.PPUCTRL&PPUCTRLSpriteTable != 0 {
			patternTableBase = 0x1000
		}
		tileAddr := patternTableBase + uint16(sprite.TileIndex)*16 + uint16(pixelY)

		patternLo := p.readVRAM(tileAddr)
		patternHi := p.readVRAM(tileAddr + 8)

		colorIndex := getPixelColor(patternLo, patternHi, pixelX)
		if colorIndex == 0 {
			continue // transparent, fall through to the next sprite
		}

		palette := sprite.Attributes & SpritePaletteMask
		return p.PaletteManager.GetSpriteColor(palette, colorIndex), true,
			sprite.Attributes&SpritePriority != 0, sprite.OAMIndex == 0
	}

	return 0, false, false, false
}

// Tile cache for performance optimization
type tileCache struct {
	valid      bool
	tileIndex  uint8
	attributes uint8
	patternLo  uint8
	patternHi  uint8
	tileX      int
	tileY      int
}

// renderPixel renders a single pixel, compositing background and sprites
// through the stencil plane rather than alpha-channel opacity.
func (p *PPU) renderPixel() {
	if p.Scanline < 0 || p.Scanline >= 240 || p.Cycle < 0 || p.Cycle >= 256 {
		return
	}

	x := p.Cycle
	y := p.Scanline
	index := y*256 + x
	if index < 0 || index >= len(p.FrameBuffer) {
		return
	}

	backdrop := p.PaletteManager.GetBackgroundColor(0, 0)

	renderingEnabled := (p.PPUMASK & (PPUMASKBGShow | PPUMASKSpriteShow)) != 0
	if !renderingEnabled {
		p.FrameBuffer[index] = backdrop
		p.Stencil[index] = StencilNone
		return
	}

	if p.Cycle == 0 {
		p.lineSprites = p.fetchSpriteData(p.Scanline)
	}

	bgOpaque := p.isBackgroundPixelOpaque(x, y)
	bgColor := p.renderBackgroundPixelCached(x, y)

	p.FrameBuffer[index] = bgColor
	if bgOpaque {
		p.Stencil[index] = StencilBackground
	} else {
		p.FrameBuffer[index] = backdrop
		p.Stencil[index] = StencilNone
	}

	spriteColor, spriteOpaque, behind, isSprite0 := p.renderSpritePixel(x, y, p.lineSprites)
	if spriteOpaque {
		if behind {
			if p.Stencil[index] <= StencilBackSprite {
				p.FrameBuffer[index] = spriteColor
				p.Stencil[index] = StencilBackSprite
			}
		} else {
			if p.Stencil[index] < StencilFrontSprite {
				p.FrameBuffer[index] = spriteColor
				p.Stencil[index] = StencilFrontSprite
			}
		}

		if isSprite0 && bgOpaque && p.PPUSTATUS&PPUSTATUSSprite0Hit == 0 {
			spriteEnabled := p.PPUMASK&PPUMASKSpriteShow != 0
			bgEnabled := p.PPUMASK&PPUMASKBGShow != 0
			leftClipped := x < 8 && (p.PPUMASK&(PPUMASKSpriteLeft|PPUMASKBGLeft)) != (PPUMASKSpriteLeft|PPUMASKBGLeft)

			if spriteEnabled && bgEnabled && !leftClipped {
				p.PPUSTATUS |= PPUSTATUSSprite0Hit
			}
		}
	}
}
